package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("outcome", "accepted"),
		attribute.String("charge_id", "NT-C"),
		attribute.String("operation_type", "CREATE"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("outcome"), attrs[0].Key)
	assert.Equal(t, attribute.Key("operation_type"), attrs[1].Key)
}

func TestRecordersCountIntoProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "chargeflow-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordBundle(ctx, "processed", 20*time.Millisecond)
	m.RecordOperation(ctx, "accepted", "CREATE")
	m.RecordOperation(ctx, "rejected", "UPDATE")
	m.RecordRuleViolation(ctx, "ChargeIdRequired")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	totals := map[string]int64{}
	for _, md := range rm.ScopeMetrics[0].Metrics {
		if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
			for _, dp := range sum.DataPoints {
				totals[md.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), totals["chargeflow_bundles_total"])
	assert.Equal(t, int64(2), totals["chargeflow_operations_total"])
	assert.Equal(t, int64(1), totals["chargeflow_rule_violations_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordBundle(context.Background(), "processed", time.Second)
	m.RecordOperation(context.Background(), "accepted", "CREATE")
	m.RecordRuleViolation(context.Background(), "ChargeIdRequired")
}
