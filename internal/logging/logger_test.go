package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/alpdik/tri/internal/config"
)

func TestNewProductionRespectsConfiguredLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "production"
	cfg.LogLevel = "warn"

	logger, err := New(cfg)
	require.NoError(t, err)
	defer logger.Sync()

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewProductionRejectsUnknownLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "production"
	cfg.LogLevel = "not-a-level"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewDevelopmentIgnoresLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "development"
	cfg.LogLevel = "not-a-level"

	logger, err := New(cfg)
	require.NoError(t, err)
	defer logger.Sync()
}

func TestWithOperationIDGeneratesOnceAndReusesAcrossCalls(t *testing.T) {
	ctx := WithOperationID(context.Background())
	id, ok := ctx.Value(operationIDKey{}).(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)

	again := WithOperationID(ctx)
	again2ID, ok := again.Value(operationIDKey{}).(string)
	require.True(t, ok)
	assert.Equal(t, id, again2ID)
}

func TestLoggerWithOperationIDFallsBackWithoutOne(t *testing.T) {
	cfg := config.Default()
	logger, err := New(cfg)
	require.NoError(t, err)
	defer logger.Sync()

	assert.Equal(t, logger.Logger, logger.WithOperationID(context.Background()))
}
