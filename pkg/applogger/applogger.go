package applogger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/config"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

func GetLogrus() *logrus.Logger {
	once.Do(func() {
		c := config.Get()

		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		})
		logger.SetLevel(logrus.InfoLevel)
		if c.Application.Debug {
			logger.SetLevel(logrus.DebugLevel)
		}
		logger.AddHook(&traceHook{})
	})

	return logger
}
