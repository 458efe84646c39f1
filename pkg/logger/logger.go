// Package logger is the logging contract of alerthub. The hub, the channel
// adapters, the HTTP API and alertctl log through Logger with a message
// and alternating key/value pairs; NewZerolog and NewConsole plug in
// zerolog, StandardLogger covers the standard log package.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// LogLevel is the most verbose severity a logger emits.
type LogLevel int

const (
	// Silent emits nothing.
	Silent LogLevel = iota + 1
	Error
	Warn
	Info
	Debug
)

var levelNames = map[LogLevel]string{
	Silent: "silent",
	Error:  "error",
	Warn:   "warn",
	Info:   "info",
	Debug:  "debug",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLevel maps a configured level name to a LogLevel, or def when the name
// is not recognised. "warning", "off"/"none" and "trace" are accepted aliases.
func ParseLevel(name string, def LogLevel) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent", "off", "none":
		return Silent
	case "error":
		return Error
	case "warn", "warning":
		return Warn
	case "info":
		return Info
	case "debug", "trace":
		return Debug
	}
	return def
}

// Logger receives hub events. args alternate keys and values.
type Logger interface {
	// LogMode returns a copy of the logger emitting up to level.
	LogMode(level LogLevel) Logger
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// StandardLogger writes "prefix [LEVEL] msg key=value ..." lines through a
// *log.Logger.
type StandardLogger struct {
	out    *log.Logger
	level  LogLevel
	prefix string
}

// NewStandardLogger returns a StandardLogger writing to out.
func NewStandardLogger(out *log.Logger, level LogLevel, prefix string) Logger {
	return &StandardLogger{out: out, level: level, prefix: prefix}
}

func (l *StandardLogger) LogMode(level LogLevel) Logger {
	cp := *l
	cp.level = level
	return &cp
}

func (l *StandardLogger) Info(msg string, args ...any)  { l.emit(Info, msg, args) }
func (l *StandardLogger) Warn(msg string, args ...any)  { l.emit(Warn, msg, args) }
func (l *StandardLogger) Error(msg string, args ...any) { l.emit(Error, msg, args) }
func (l *StandardLogger) Debug(msg string, args ...any) { l.emit(Debug, msg, args) }

func (l *StandardLogger) emit(level LogLevel, msg string, args []any) {
	if level > l.level {
		return
	}
	var b strings.Builder
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(level.String()), msg)
	for i := 0; i < len(args); i += 2 {
		val := "(no value)"
		if i+1 < len(args) {
			val = quoteIfSpaced(fmt.Sprint(args[i+1]))
		}
		fmt.Fprintf(&b, " %v=%s", args[i], val)
	}
	l.out.Print(b.String())
}

// quoteIfSpaced keeps multi-word values (error messages) readable as one field.
func quoteIfSpaced(s string) string {
	if strings.ContainsAny(s, " \t\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

type discardLogger struct{}

func (d discardLogger) LogMode(LogLevel) Logger { return d }
func (discardLogger) Info(string, ...any)       {}
func (discardLogger) Warn(string, ...any)       {}
func (discardLogger) Error(string, ...any)      {}
func (discardLogger) Debug(string, ...any)      {}

// Discard drops everything.
var Discard Logger = discardLogger{}

// New returns the hub's fallback logger: warnings and errors on stderr.
func New() Logger {
	return NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags), Warn, "[alerthub]")
}

// OrDiscard returns l, or Discard when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard
	}
	return l
}
