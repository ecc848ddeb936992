package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger. Call Init before using it.
	Logger *zap.SugaredLogger
	// DefaultLogger is the fallback used when no request-scoped logger is
	// available, e.g. when looking one up from a bare context.
	DefaultLogger *zap.SugaredLogger
)

func init() {
	// Safe default so packages can log before Init runs (tests, tools).
	l, _ := zap.NewDevelopment()
	Logger = l.Sugar()
	DefaultLogger = Logger
}

func Init(environment, level string) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", level)
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("building logger: %v", err))
	}
	Logger = logger.Sugar()
	DefaultLogger = Logger
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
