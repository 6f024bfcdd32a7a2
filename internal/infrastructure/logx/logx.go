package logx

import (
	"strings"

	"fxconv-service/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
)

func init() {
	var err error
	logger, err = New(config.Load().LogLevel)
	if err != nil {
		panic(err)
	}
}

// New builds the JSON production logger at the given level. An unknown level keeps info.
func New(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Sampling = nil
	zapCfg.DisableStacktrace = true
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		_ = zapCfg.Level.UnmarshalText([]byte(strings.ToLower(level)))
	}
	return zapCfg.Build(zap.AddCaller())
}

// L returns the package-level logger instance.
func L() *zap.Logger {
	return logger
}

// Component returns the package-level logger tagged with a component name.
func Component(name string) *zap.Logger {
	return logger.With(zap.String("component", name))
}
