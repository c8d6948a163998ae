// Package logger owns the process-wide zap logger. Until Init runs every
// call is a no-op, so packages may log from init paths and tests freely.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options tweaks the encoder used by Init.
type Options struct {
	// Development switches to the coloured console encoder with caller info.
	Development bool
	// Service is attached to every entry as the "service" field when set.
	Service string
}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// ParseLevel maps a textual level onto zap, falling back to info.
func ParseLevel(text string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(text))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Init builds the global logger. Production output is JSON with ISO8601
// timestamps; development output is the console encoder.
func Init(lvl string, opts ...Options) error {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if o.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level.SetLevel(ParseLevel(lvl))
	cfg.Level = level
	if o.Service != "" {
		cfg.InitialFields = map[string]any{"service": o.Service}
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	global = built
	mu.Unlock()
	return nil
}

// SetLevel changes the minimum level of the logger built by Init without
// rebuilding it.
func SetLevel(lvl string) {
	level.SetLevel(ParseLevel(lvl))
}

// Logger returns the configured global logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Replace swaps the global logger and returns a function restoring the previous one.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := global
	global = l
	mu.Unlock()

	return func() {
		mu.Lock()
		global = prev
		mu.Unlock()
	}
}

// Sync flushes buffered log entries.
func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger annotated with the module name.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}
