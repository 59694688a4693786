package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	open, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)

	stopped, err := NewCharge(2, tariffOp(day(0), nil))
	require.NoError(t, err)
	require.NoError(t, stopped.Stop(day(10)))

	tests := []struct {
		name     string
		op       ChargeOperation
		existing *Charge
		expected OperationType
	}{
		{name: "missing charge creates", op: tariffOp(day(0), nil), existing: nil, expected: OperationTypeCreate},
		{name: "missing charge with stop window still creates", op: tariffOp(day(5), timePtr(day(5))), existing: nil, expected: OperationTypeCreate},
		{name: "zero length window stops", op: tariffOp(day(5), timePtr(day(5))), existing: open, expected: OperationTypeStop},
		{name: "stop wins over cancel stop", op: tariffOp(day(10), timePtr(day(10))), existing: stopped, expected: OperationTypeStop},
		{name: "start at stop date cancels stop", op: tariffOp(day(10), nil), existing: stopped, expected: OperationTypeCancelStop},
		{name: "start elsewhere updates stopped charge", op: tariffOp(day(4), nil), existing: stopped, expected: OperationTypeUpdate},
		{name: "open charge updates", op: tariffOp(day(4), nil), existing: open, expected: OperationTypeUpdate},
		{name: "end time differing from start updates", op: tariffOp(day(4), timePtr(day(8))), existing: open, expected: OperationTypeUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.op, tt.existing)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClassifyNeverReturnsUnknown(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)
	require.NoError(t, c.Stop(day(9)))

	for offset := -3; offset < 15; offset++ {
		for _, end := range []*time.Time{nil, timePtr(day(offset)), timePtr(day(offset + 1))} {
			for _, existing := range []*Charge{nil, c} {
				got, err := Classify(tariffOp(day(offset), end), existing)
				require.NoError(t, err)
				assert.Contains(t, []OperationType{
					OperationTypeCreate, OperationTypeUpdate, OperationTypeStop, OperationTypeCancelStop,
				}, got)
			}
		}
	}
}

func TestClassifyChargeWithoutPeriodsIsFatal(t *testing.T) {
	empty := RestoreCharge(1, ChargeIdentifier{ChargeID: "X"}, ResolutionPT1H, false, nil, nil)
	_, err := Classify(tariffOp(day(0), nil), empty)
	assert.ErrorIs(t, err, ErrUnknownOperationType)
}
