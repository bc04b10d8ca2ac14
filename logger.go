package simjoin

import (
	"fmt"
	"log/slog"
	"os"
)

const (
	DebugLevel = iota
	InfoLevel
	ErrorLevel
)

var (
	LogLevel int        = InfoLevel // control DefaultLogger log level
	Logger   JoinLogger = NewDefaultLogger()
)

type (
	JoinLogger interface {
		Debugf(format string, v ...interface{})
		Infof(format string, v ...interface{})
		Errorf(format string, v ...interface{})
	}

	// DefaultLogger a stderr text logger gated by LogLevel
	DefaultLogger struct {
		l *slog.Logger
	}

	// slogLogger forward everything to a caller supplied slog.Logger, level
	// filtering is left to its handler
	slogLogger struct {
		l *slog.Logger
	}
)

func NewDefaultLogger() *DefaultLogger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &DefaultLogger{l: slog.New(handler).With("module", "simjoin")}
}

func NewSlogLogger(l *slog.Logger) JoinLogger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

// SetLogger replace the package logger, nil restore the default one
func SetLogger(l JoinLogger) {
	if l == nil {
		l = NewDefaultLogger()
	}
	Logger = l
}

func LogDebugIf(condition bool, format string, v ...interface{}) {
	if condition {
		Logger.Debugf(format, v...)
	}
}

func LogInfoIf(condition bool, format string, v ...interface{}) {
	if condition {
		Logger.Infof(format, v...)
	}
}

func LogErrIf(condition bool, format string, v ...interface{}) {
	if condition {
		Logger.Errorf(format, v...)
	}
}

func LogIfErr(err error, format string, v ...interface{}) {
	if err == nil {
		return
	}
	Logger.Errorf(format+", err:%v", append(v, err)...)
}

func LogErr(format string, v ...interface{}) {
	Logger.Errorf(format, v...)
}

func LogInfo(format string, v ...interface{}) {
	Logger.Infof(format, v...)
}

func LogDebug(format string, v ...interface{}) {
	Logger.Debugf(format, v...)
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	if LogLevel > DebugLevel {
		return
	}
	l.l.Debug(fmt.Sprintf(format, v...))
}

func (l *DefaultLogger) Infof(format string, v ...interface{}) {
	if LogLevel > InfoLevel {
		return
	}
	l.l.Info(fmt.Sprintf(format, v...))
}

func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	if LogLevel > ErrorLevel {
		return
	}
	l.l.Error(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Debugf(format string, v ...interface{}) {
	l.l.Debug(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Infof(format string, v ...interface{}) {
	l.l.Info(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Errorf(format string, v ...interface{}) {
	l.l.Error(fmt.Sprintf(format, v...))
}
