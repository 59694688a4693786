package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIngestMetricsRegisterAndCount(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewIngestMetrics(registry, Config{ServiceName: "chargeflow", Environment: "test"})

	m.ObserveSweep(3)
	m.ObserveBundle("processed", 0.2)
	m.IncFailure(IngestFailureParse)
	m.IncFailure(IngestFailureParse)
	m.IncLockContention()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.sweeps))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.backlog))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.failures.WithLabelValues(IngestFailureParse)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.lockContention))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("save: %w", context.DeadlineExceeded), IngestFailureDeadlineExceeded},
		{&pgconn.PgError{Code: "55P03"}, IngestFailureLockTimeout},
		{&pgconn.PgError{Code: "40001"}, IngestFailureSerialization},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), IngestFailureUniqueViolation},
		{gorm.ErrDuplicatedKey, IngestFailureUniqueViolation},
		{&pgconn.PgError{Code: "08006"}, IngestFailureDB},
		{gorm.ErrInvalidTransaction, IngestFailureDB},
		{errors.New("boom"), IngestFailureUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyFailure(tc.err))
	}
}

func TestNilIngestMetricsIsSafe(t *testing.T) {
	var m *IngestMetrics
	m.ObserveSweep(1)
	m.ObserveBundle("failed", 1)
	m.IncFailure(IngestFailureDB)
	m.IncLockContention()
}
