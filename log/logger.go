package log

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func NewLevel(l string) (Level, error) {
	switch strings.ToLower(l) {
	case LevelTrace.String():
		return LevelTrace, nil
	case LevelDebug.String():
		return LevelDebug, nil
	case LevelInfo.String():
		return LevelInfo, nil
	case LevelWarn.String():
		return LevelWarn, nil
	case LevelError.String():
		return LevelError, nil
	case LevelFatal.String():
		return LevelFatal, nil
	default:
		return LevelTrace, errors.Errorf("invalid log level %q", l)
	}
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		panic("invalid level")
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.PanicLevel
	}
}

var currLevel = int32(LevelInfo)

var backend = logrus.New()

var rootLogger = &logrusLogger{
	backend: backend,
}

type Logger interface {
	Trace(string, ...interface{})
	Debug(string, ...interface{})
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Fatal(string, ...interface{})
	Sub(...interface{}) Logger
}

func SetLevel(level Level) {
	atomic.StoreInt32(&currLevel, int32(level))
	backend.SetLevel(level.logrus())
}

func CurrentLevel() Level {
	return Level(atomic.LoadInt32(&currLevel))
}

// SetOutput redirects all loggers. Output that is not a terminal gets
// JSON lines instead of colored text.
func SetOutput(w io.Writer) {
	backend.SetOutput(w)
	backend.SetFormatter(formatterFor(w))
}

func formatterFor(w io.Writer) logrus.Formatter {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return &logrus.TextFormatter{
			FullTimestamp: true,
		}
	}
	return &logrus.JSONFormatter{}
}

func WithModule(name string) Logger {
	return rootLogger.Sub("module", name)
}

func init() {
	backend.SetFormatter(formatterFor(os.Stderr))

	// set log level to trace by default in test
	if strings.HasSuffix(os.Args[0], ".test") {
		SetLevel(LevelTrace)
	}
}
