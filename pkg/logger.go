package beamana

import (
	"io"
	"log/slog"
)

type Logger interface {
	Info(message string, module string)
	Error(string)
}

var logger Logger = NewSlogLogger(io.Discard, io.Discard)

func SetLogger(l Logger) {
	logger = l
}

// SlogLogger sends informational messages and errors to separate slog loggers.
type SlogLogger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

// NewSlogLogger writes info lines with the bracketed handler and errors as JSON.
func NewSlogLogger(infoOut io.Writer, errorOut io.Writer) SlogLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	return SlogLogger{
		InfoLog:  slog.New(NewHandler(infoOut, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(errorOut, opts)),
	}
}

func (l SlogLogger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l SlogLogger) Error(message string) {
	l.ErrorLog.Error(message)
}
