package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the JSON logger shared by the blindpoll programs. Every entry
// carries the component that wrote it; unknown levels fall back to info.
func New(component, logLevel string) (*zap.Logger, error) {
	return build(component, logLevel, "stderr")
}

func build(component, logLevel string, outputs ...string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoder(func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	})
	config.OutputPaths = outputs
	config.InitialFields = map[string]any{"component": component}

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	config.Level.SetLevel(level)

	return config.Build()
}
