package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	zl    zerolog.Logger
	level LogLevel
}

// NewZerolog wraps zl. The alerthub level is applied on top of zl's own level.
func NewZerolog(zl zerolog.Logger, level LogLevel) Logger {
	return &ZerologLogger{zl: zl.Level(zerologLevel(level)), level: level}
}

// NewConsole returns a zerolog console logger writing to w (stderr when nil).
func NewConsole(w io.Writer, level LogLevel) Logger {
	if w == nil {
		w = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return NewZerolog(zerolog.New(cw).With().Timestamp().Str("component", "alerthub").Logger(), level)
}

// LogMode sets the log level and returns a new logger instance.
func (z *ZerologLogger) LogMode(level LogLevel) Logger {
	return &ZerologLogger{zl: z.zl.Level(zerologLevel(level)), level: level}
}

func (z *ZerologLogger) Info(msg string, args ...any)  { z.zl.Info().Fields(args).Msg(msg) }
func (z *ZerologLogger) Warn(msg string, args ...any)  { z.zl.Warn().Fields(args).Msg(msg) }
func (z *ZerologLogger) Error(msg string, args ...any) { z.zl.Error().Fields(args).Msg(msg) }
func (z *ZerologLogger) Debug(msg string, args ...any) { z.zl.Debug().Fields(args).Msg(msg) }

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case Silent:
		return zerolog.Disabled
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	case Info:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
