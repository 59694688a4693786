package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/chargeflow/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestWithContextAddsCorrelationID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := correlation.ContextWithCorrelationID(context.Background(), "01HZX")

	WithDocument(WithContext(ctx, zap.New(core)), "DOC-1").Info("bundle processed")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "01HZX", fields["correlation_id"])
	assert.Equal(t, "DOC-1", fields["document_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestGormLoggerLogsFailedStatements(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())

	query := func() (string, int64) { return "INSERT INTO charges (id) VALUES (?)", 0 }
	l.Trace(context.Background(), time.Now(), query, errors.New("UNIQUE constraint failed"))
	l.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), query, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "INSERT", entry.ContextMap()["statement"])
}

func TestGormLoggerSlowQuery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: time.Millisecond})

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM charges", 1
	}, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "gorm.slow_query", logs.All()[0].Message)
}
