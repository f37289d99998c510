package applogger

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// traceHook stamps entries logged with a span context with its trace and span ids.
type traceHook struct{}

func (h *traceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *traceHook) Fire(entry *logrus.Entry) error {
	if entry.Context == nil {
		return nil
	}

	sc := trace.SpanContextFromContext(entry.Context)
	if !sc.IsValid() {
		return nil
	}

	entry.Data["trace_id"] = sc.TraceID().String()
	entry.Data["span_id"] = sc.SpanID().String()

	return nil
}
