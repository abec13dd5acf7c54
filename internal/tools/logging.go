package tools

import (
	"context"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"go.uber.org/zap"
)

// DispatcherOption configures a Dispatcher instance.
type DispatcherOption func(*Dispatcher)

// OperationLogger records every tool invocation handled by Dispatcher.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one tool invocation.
type OperationLog struct {
	Operation   string
	Status      string
	AmountSat   *uint64
	PaymentHash string
	// Output is the record returned to the caller on success.
	Output any
	Error  error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		dispatcher.logger = logger
	}
}

// OperationLoggers fans an entry out to several loggers.
type OperationLoggers []OperationLogger

// LogOperation forwards entry to every non-nil logger in order.
func (loggers OperationLoggers) LogOperation(ctx context.Context, entry OperationLog) {
	for _, logger := range loggers {
		if logger != nil {
			logger.LogOperation(ctx, entry)
		}
	}
}

// ZapOperationLogger writes tool operations to a zap logger.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger builds a ZapOperationLogger; a nil logger discards entries.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapOperationLogger{logger: logger}
}

// LogOperation implements OperationLogger.
func (operationLogger *ZapOperationLogger) LogOperation(_ context.Context, entry OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.AmountSat != nil {
		fields = append(fields, zap.Uint64("amount_sat", *entry.AmountSat))
	}
	if entry.PaymentHash != "" {
		fields = append(fields, zap.String("payment_hash", entry.PaymentHash))
	}
	if entry.Error != nil {
		if code := wallet.ErrorCode(entry.Error); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
		operationLogger.logger.Warn("tool operation failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	operationLogger.logger.Info("tool operation", fields...)
}
