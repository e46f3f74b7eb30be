package log

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	backend logrus.Ext1FieldLogger
}

var _ Logger = (*logrusLogger)(nil)

func (l *logrusLogger) Trace(msg string, fields ...interface{}) {
	if l.isEnabled(LevelTrace) {
		l.withFields(fields).Trace(msg)
	}
}

func (l *logrusLogger) Debug(msg string, fields ...interface{}) {
	if l.isEnabled(LevelDebug) {
		l.withFields(fields).Debug(msg)
	}
}

func (l *logrusLogger) Info(msg string, fields ...interface{}) {
	if l.isEnabled(LevelInfo) {
		l.withFields(fields).Info(msg)
	}
}

func (l *logrusLogger) Warn(msg string, fields ...interface{}) {
	if l.isEnabled(LevelWarn) {
		l.withFields(fields).Warn(msg)
	}
}

func (l *logrusLogger) Error(msg string, fields ...interface{}) {
	if l.isEnabled(LevelError) {
		l.withFields(fields).Error(msg)
	}
}

func (l *logrusLogger) Fatal(msg string, fields ...interface{}) {
	if l.isEnabled(LevelFatal) {
		l.withFields(fields).Fatal(msg)
	}
}

func (l *logrusLogger) Sub(fields ...interface{}) Logger {
	return &logrusLogger{
		backend: l.withFields(fields),
	}
}

func (l *logrusLogger) isEnabled(level Level) bool {
	return level >= CurrentLevel()
}

// withFields turns key/value pairs into logrus fields. Error values are
// logged by message and Stringers by their string form so JSON output
// stays readable.
func (l *logrusLogger) withFields(fields []interface{}) logrus.Ext1FieldLogger {
	if len(fields) == 0 {
		return l.backend
	}
	if len(fields)%2 != 0 {
		panic("must specify arguments as tuples")
	}

	lFields := make(logrus.Fields, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			panic("argument keys must be strings")
		}

		switch v := fields[i+1].(type) {
		case error:
			lFields[key] = v.Error()
		case fmt.Stringer:
			lFields[key] = v.String()
		default:
			lFields[key] = v
		}
	}
	return l.backend.WithFields(lFields)
}
