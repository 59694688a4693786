package metrics

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	IngestFailureParse            = "parse"
	IngestFailureDeadlineExceeded = "deadline_exceeded"
	IngestFailureLockTimeout      = "db_lock_timeout"
	IngestFailureSerialization    = "serialization_failure"
	IngestFailureUniqueViolation  = "unique_violation"
	IngestFailureDB               = "db"
	IngestFailureUnknown          = "unknown"
)

// IngestMetrics captures inbox worker health for the ops endpoint.
type IngestMetrics struct {
	sweeps         prometheus.Counter
	backlog        prometheus.Gauge
	bundleDuration *prometheus.HistogramVec
	failures       *prometheus.CounterVec
	lockContention prometheus.Counter
}

func NewIngestMetrics(registry *prometheus.Registry, cfg Config) *IngestMetrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "chargeflow"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	m := &IngestMetrics{
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "chargeflow_ingest_sweeps_total",
			Help:        "Inbox sweeps performed by the ingest worker.",
			ConstLabels: constLabels,
		}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "chargeflow_ingest_backlog",
			Help:        "Bundle files found in the inbox at the last sweep.",
			ConstLabels: constLabels,
		}),
		bundleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "chargeflow_ingest_bundle_duration_seconds",
			Help:        "Time from reading a bundle file to emitting its outcome.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "chargeflow_ingest_failures_total",
			Help:        "Bundles that could not be processed, by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		lockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "chargeflow_ingest_lock_contention_total",
			Help:        "Bundles skipped because another instance holds their lock.",
			ConstLabels: constLabels,
		}),
	}

	if registry != nil {
		registry.MustRegister(m.sweeps, m.backlog, m.bundleDuration, m.failures, m.lockContention)
	}
	return m
}

func (m *IngestMetrics) ObserveSweep(backlog int) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.backlog.Set(float64(backlog))
}

func (m *IngestMetrics) ObserveBundle(status string, seconds float64) {
	if m == nil {
		return
	}
	m.bundleDuration.WithLabelValues(status).Observe(seconds)
}

func (m *IngestMetrics) IncFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

func (m *IngestMetrics) IncLockContention() {
	if m == nil {
		return
	}
	m.lockContention.Inc()
}

// ClassifyFailure maps an infrastructure error to a low-cardinality reason.
func ClassifyFailure(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return IngestFailureDeadlineExceeded
	case hasPGCode(err, "55P03"):
		return IngestFailureLockTimeout
	case hasPGCode(err, "40001"):
		return IngestFailureSerialization
	case errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505"):
		return IngestFailureUniqueViolation
	case isDBError(err):
		return IngestFailureDB
	default:
		return IngestFailureUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrMissingWhereClause) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
