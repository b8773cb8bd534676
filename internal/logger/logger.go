// Package logger wires the process logger on top of charmbracelet/log.
package logger

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the structured logging surface used across usercore.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// Config controls logger construction.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

// New builds a Logger. Output defaults to stderr, level to info.
func New(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           ParseLevel(cfg.Level),
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	} else {
		l.SetFormatter(charmlog.TextFormatter)
	}
	return &charmLogger{l: l}
}

var levels = map[string]charmlog.Level{
	"debug":   charmlog.DebugLevel,
	"info":    charmlog.InfoLevel,
	"warn":    charmlog.WarnLevel,
	"warning": charmlog.WarnLevel,
	"error":   charmlog.ErrorLevel,
}

func normalize(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}

// ValidLevel reports whether level names a supported log level.
func ValidLevel(level string) bool {
	_, ok := levels[normalize(level)]
	return ok
}

// ParseLevel maps a config level name to a charm level; unknown names map to info.
func ParseLevel(level string) charmlog.Level {
	if l, ok := levels[normalize(level)]; ok {
		return l
	}
	return charmlog.InfoLevel
}
