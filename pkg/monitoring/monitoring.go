package monitoring

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type OpenTelemetry struct {
	serviceName string
	environment string
	endpoint    string
	logger      *logrus.Logger
	provider    *sdktrace.TracerProvider
}

func NewOpenTelemetry(logger *logrus.Logger, serviceName, environment, endpoint string) *OpenTelemetry {
	return &OpenTelemetry{
		serviceName: serviceName,
		environment: environment,
		endpoint:    endpoint,
		logger:      logger,
	}
}

// Start installs the global tracer provider. Exporter failures leave tracing disabled.
func (o *OpenTelemetry) Start(ctx context.Context) {
	conn, err := grpc.Dial(o.endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		o.logger.WithField("object", "monitoring").WithError(err).Error()
		return
	}

	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		o.logger.WithField("object", "monitoring").WithError(err).Error()
		return
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(o.serviceName),
			semconv.DeploymentEnvironmentKey.String(o.environment),
		),
	)
	if err != nil {
		o.logger.WithField("object", "monitoring").WithError(err).Warn()
	}

	o.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(o.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
}

func (o *OpenTelemetry) Stop(ctx context.Context) {
	if o.provider == nil {
		return
	}

	if err := o.provider.Shutdown(ctx); err != nil {
		o.logger.WithField("object", "monitoring").WithError(err).Error()
	}
}
