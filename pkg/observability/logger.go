// Package observability builds the process logger from configuration.
package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"logship/pkg/config"
)

// SetupLogger builds a zap.Logger from c, installs it as the global logger
// and redirects the stdlib log package into it. The caller should defer
// logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	encCfg := encoderConfig(c.Development)
	var encoder zapcore.Encoder
	if strings.EqualFold(c.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	cores := make([]zapcore.Core, 0, len(outputs))
	for _, out := range outputs {
		ws, err := writeSyncer(out, c)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, level))
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	}
	if c.Development {
		opts = append(opts, zap.Development())
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)
	zap.ReplaceGlobals(logger)
	_, _ = zap.RedirectStdLogAt(logger, zap.InfoLevel)
	return logger, nil
}

// ParseLevel accepts debug, info, warn/warning and error; empty means info.
func ParseLevel(s string) (zap.AtomicLevel, error) {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "info", "":
		level.SetLevel(zap.InfoLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		return level, fmt.Errorf("unknown log level: %q", s)
	}
	return level, nil
}

func writeSyncer(out string, c config.LogConfig) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(out) {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	// anything else is a file path
	if c.Rotation.Enable {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   rotationFilename(out, c.Rotation),
			MaxSize:    atLeast(c.Rotation.MaxSizeMB, 10),
			MaxBackups: atLeast(c.Rotation.MaxBackups, 1),
			MaxAge:     atLeast(c.Rotation.MaxAgeDays, 7),
			Compress:   c.Rotation.Compress,
		}), nil
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("log output %s: %w", out, err)
		}
	}
	f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log output %s: %w", out, err)
	}
	return zapcore.AddSync(f), nil
}

func encoderConfig(dev bool) zapcore.EncoderConfig {
	if dev {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func atLeast(v, floor int) int {
	if v > floor {
		return v
	}
	return floor
}

// rotationFilename prefers an explicit rotation filename over the output path.
func rotationFilename(out string, r config.RotationConfig) string {
	if strings.TrimSpace(r.Filename) != "" {
		return r.Filename
	}
	return out
}
