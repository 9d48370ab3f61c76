// Package logging builds the process logger. The terminal belongs to the UI,
// so entries go to a rotated JSON file.
package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// File is the log path. Empty means DefaultPath.
	File  string
	Debug bool
}

func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("cannot determine user cache dir")
	}
	return filepath.Join(dir, "aihelper", "aihelper.log"), nil
}

// New returns a file logger and a func that flushes it. When no log file can
// be opened a no-op logger is returned together with the error.
func New(opts Options) (*zap.Logger, func(), error) {
	path := strings.TrimSpace(opts.File)
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return zap.NewNop(), func() {}, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zap.NewNop(), func() {}, err
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(rotator), level)
	l := zap.New(core, zap.AddCaller()).With(zap.Int("pid", os.Getpid()))

	return l, func() {
		_ = l.Sync()
		_ = rotator.Close()
	}, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}
