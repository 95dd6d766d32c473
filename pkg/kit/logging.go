package kit

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envDevelopment = "development"

// NewLogger builds the service logger. Production config writes JSON to
// stdout; development switches to the colored console encoder.
func NewLogger(service, env string) *zap.Logger {
	var cfg zap.Config
	if env == envDevelopment {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.InitialFields = map[string]any{"service": service}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		l, _ = zap.NewProduction()
		return l.With(zap.String("service", service))
	}
	return l
}
