package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func ledgerQuery() (string, int64) {
	return "SELECT * FROM ledger_transaction_records WHERE gl_account_id = ?", 3
}

func TestGormLoggerOptions(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	var _ gormlogger.Interface = gl
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)
	changed, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "suppressed %d", 1)
	gl.Warn(ctx, "pool %s", "exhausted")
	gl.Error(ctx, "broken %s", "pipe")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "pool exhausted", logs[0].Message)
	assert.Equal(t, "broken pipe", logs[1].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		begin   time.Time
		err     error
		wantMsg string
	}{
		{"silent logs nothing", gormlogger.Silent, nil, time.Now(), errors.New("boom"), ""},
		{"error", gormlogger.Error, nil, time.Now(), errors.New("boom"), "SQL Error"},
		{"record not found ignored", gormlogger.Error, nil, time.Now(), gormlogger.ErrRecordNotFound, ""},
		{"record not found reported", gormlogger.Error, []GormLoggerOption{WithIgnoreRecordNotFoundError(false)}, time.Now(), gormlogger.ErrRecordNotFound, "SQL Error"},
		{"slow query", gormlogger.Warn, []GormLoggerOption{WithSlowThreshold(time.Nanosecond)}, time.Now().Add(-time.Second), nil, "SLOW SQL"},
		{"normal query", gormlogger.Info, nil, time.Now(), nil, "SQL Query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := newObservedGormLogger(tt.level, tt.opts...)
			gl.Trace(context.Background(), tt.begin, ledgerQuery, tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, recorded.All())
				return
			}
			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Contains(t, logs[0].Message, tt.wantMsg)
		})
	}
}

func TestGormLogger_TraceCarriesOperation(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Info)
	ctx := WithOperation(context.Background(), "trial-balance")

	gl.Trace(ctx, time.Now(), ledgerQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "trial-balance", fields["operation"])
	assert.Equal(t, int64(3), fields["rows"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
