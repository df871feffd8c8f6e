package logger

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

type cronLogger struct {
	logger Logger
}

// NewCronLogger adapts Logger to the cron.Logger interface used by robfig/cron
func NewCronLogger(log Logger) cron.Logger {
	return &cronLogger{logger: log.With(String("component", "cron"))}
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug(msg, keyValueFields(keysAndValues)...)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := append(keyValueFields(keysAndValues), Error(err))
	c.logger.Error(msg, fields...)
}

func keyValueFields(keysAndValues []interface{}) []Field {
	fields := make([]Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 >= len(keysAndValues) {
			fields = append(fields, Any("extra", keysAndValues[i]))
			break
		}
		fields = append(fields, Any(key, keysAndValues[i+1]))
	}
	return fields
}
