// Package logging builds the structured, leveled logger every MCPMan
// component takes by constructor injection (never a package-level global),
// using go.uber.org/zap.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls where and how verbosely MCPMan logs.
type Config struct {
	// Level is one of debug|info|warn|error. Empty defaults to "info".
	Level string
	// File, when non-empty, redirects output to that path instead of stderr.
	File string
	// Trace mirrors the MCPMAN_TRACE environment variable: when true, the
	// level floor is forced to debug regardless of Level.
	Trace bool
}

// New builds a *zap.Logger per Config. Downstream stdio traffic is the
// protocol channel, so logs always go to stderr (or a file) never stdout.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Trace {
		level = zapcore.DebugLevel
	}

	var sink zapcore.WriteSyncer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
	return zap.New(core), nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown logging level %q", s)
	}
}
