package server

import (
	"context"
	"fmt"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a production JSON logger writing to stderr so the stdio
// transport keeps stdout for protocol traffic.
func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %w", wallet.ErrConfiguration, err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parsed)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}

// ZapLifecycleLogger writes wallet session lifecycle events to zap.
type ZapLifecycleLogger struct {
	logger *zap.Logger
}

// NewZapLifecycleLogger builds a ZapLifecycleLogger; a nil logger discards entries.
func NewZapLifecycleLogger(logger *zap.Logger) *ZapLifecycleLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLifecycleLogger{logger: logger}
}

// LogLifecycle implements wallet.LifecycleLogger.
func (lifecycleLogger *ZapLifecycleLogger) LogLifecycle(_ context.Context, entry wallet.LifecycleLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.String("network", entry.Network.String()),
	}
	if entry.StorageDir != "" {
		fields = append(fields, zap.String("storage_dir", entry.StorageDir))
	}
	if entry.Error != nil {
		if code := wallet.ErrorCode(entry.Error); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
		lifecycleLogger.logger.Error("wallet session", append(fields, zap.Error(entry.Error))...)
		return
	}
	lifecycleLogger.logger.Info("wallet session", fields...)
}
