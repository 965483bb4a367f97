package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alpdik/tri/internal/config"
)

type Logger struct {
	*zap.Logger
}

type operationIDKey struct{}

// New builds a Logger from cfg: JSON-structured at cfg.LogLevel for
// "production" (what a process running unattended wants piped into a log
// collector), human-readable with caller/stack info for everything else
// (what a developer running the `tri` shell wants on their terminal).
// cfg.LogLevel is only consulted in the production case; the development
// encoder config always logs at debug and above.
func New(cfg *config.Config) (*Logger, error) {
	if cfg.Environment == "production" {
		zapConfig := zap.NewProductionConfig()

		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, err
		}
		zapConfig.Level = zap.NewAtomicLevelAt(level)

		logger, err := zapConfig.Build()
		if err != nil {
			return nil, err
		}
		return &Logger{logger}, nil
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &Logger{logger}, nil
}

// WithOperationID stamps ctx with a correlation id for the façade call or
// shell command about to run, generating one if none is present yet.
func WithOperationID(ctx context.Context) context.Context {
	if _, ok := ctx.Value(operationIDKey{}).(string); ok {
		return ctx
	}
	return context.WithValue(ctx, operationIDKey{}, uuid.New().String())
}

// WithOperationID returns a *zap.Logger tagged with the operation id carried
// by ctx, if any.
func (l *Logger) WithOperationID(ctx context.Context) *zap.Logger {
	if opID, ok := ctx.Value(operationIDKey{}).(string); ok {
		return l.With(zap.String("operation_id", opID))
	}
	return l.Logger
}
