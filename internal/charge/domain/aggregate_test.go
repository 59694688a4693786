package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan1 = time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

func day(n int) time.Time { return jan1.AddDate(0, 0, n) }

func timePtr(t time.Time) *time.Time { return &t }

func tariffOp(start time.Time, end *time.Time) ChargeOperation {
	return ChargeOperation{
		OperationID:       "op",
		ChargeType:        ChargeTypeTariff,
		ChargeID:          "T1",
		ChargeOwnerID:     "5790000000005",
		Name:              "Net tariff",
		Description:       "Net tariff C",
		Resolution:        ResolutionPT1H,
		VatClassification: VatClassificationVat25,
		StartTime:         start,
		EndTime:           end,
	}
}

func assertNoOverlap(t *testing.T, c *Charge) {
	t.Helper()
	periods := c.Periods()
	for i := 1; i < len(periods); i++ {
		prev, cur := periods[i-1], periods[i]
		require.NotNil(t, prev.EndTime, "only the latest period may be open-ended")
		assert.False(t, cur.StartTime.Before(*prev.EndTime), "period %d overlaps period %d", i, i-1)
		assert.True(t, cur.StartTime.After(prev.StartTime))
	}
}

func TestNewCharge(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)
	assert.True(t, c.Dirty())
	assert.Len(t, c.Periods(), 1)
	assert.Nil(t, c.StopDate())

	_, err = NewCharge(1, tariffOp(day(0), timePtr(day(0))))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestChargeUpdateSplitsCoveringPeriod(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)

	upd := tariffOp(day(10), nil)
	upd.Name = "Renamed"
	require.NoError(t, c.Update(upd))

	periods := c.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, day(10), *periods[0].EndTime)
	assert.Equal(t, "Renamed", periods[1].Name)
	assert.Nil(t, periods[1].EndTime)
	assertNoOverlap(t, c)
}

func TestChargeUpdateReplacesLaterPeriodsAndKeepsStopDate(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)
	require.NoError(t, c.Update(tariffOp(day(10), nil)))
	require.NoError(t, c.Update(tariffOp(day(20), nil)))
	require.NoError(t, c.Stop(day(30)))

	require.NoError(t, c.Update(tariffOp(day(5), nil)))

	periods := c.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, day(5), periods[1].StartTime)
	require.NotNil(t, periods[1].EndTime)
	assert.Equal(t, day(30), *periods[1].EndTime)
	assertNoOverlap(t, c)
}

func TestChargeUpdateRejectsStartAtOrAfterStop(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)
	require.NoError(t, c.Stop(day(10)))

	assert.ErrorIs(t, c.Update(tariffOp(day(11), nil)), ErrUpdateAfterStop)
	assert.ErrorIs(t, c.Update(tariffOp(day(10), nil)), ErrUpdateAfterStop)
}

func TestChargeUpdateBeforeFirstPeriodReplacesHistory(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)
	require.NoError(t, c.Update(tariffOp(day(5), nil)))

	require.NoError(t, c.Update(tariffOp(day(-1), nil)))
	periods := c.Periods()
	require.Len(t, periods, 1)
	assert.Equal(t, day(-1), periods[0].StartTime)
	assert.Nil(t, periods[0].EndTime)
}

func TestChargeStop(t *testing.T) {
	op := tariffOp(day(0), nil)
	op.SeriesStart = timePtr(day(0))
	op.SeriesEnd = timePtr(day(3))
	op.Points = []Point{
		{Position: 1, Price: decimal.RequireFromString("1.5"), Time: day(0)},
		{Position: 2, Price: decimal.RequireFromString("2.5"), Time: day(1)},
		{Position: 3, Price: decimal.RequireFromString("3.5"), Time: day(2)},
	}
	c, err := NewCharge(1, op)
	require.NoError(t, err)
	require.NoError(t, c.Update(tariffOp(day(5), nil)))

	require.NoError(t, c.Stop(day(1)))

	periods := c.Periods()
	require.Len(t, periods, 1)
	assert.Equal(t, day(1), *periods[0].EndTime)
	assert.Len(t, c.Points(), 1)

	assert.ErrorIs(t, c.Stop(day(0)), ErrInvalidStopDate)
	assert.ErrorIs(t, c.Stop(day(2)), ErrInvalidStopDate)
}

func TestChargeCancelStop(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)

	assert.ErrorIs(t, c.CancelStop(tariffOp(day(10), nil)), ErrChargeNotStopped)

	require.NoError(t, c.Stop(day(10)))
	assert.ErrorIs(t, c.CancelStop(tariffOp(day(9), nil)), ErrInvalidPeriod)
	require.NoError(t, c.CancelStop(tariffOp(day(10), nil)))

	assert.Nil(t, c.StopDate())
	assert.Len(t, c.Periods(), 2)
	assertNoOverlap(t, c)
}

func TestChargePeriodsNeverOverlapAcrossSequences(t *testing.T) {
	c, err := NewCharge(1, tariffOp(day(0), nil))
	require.NoError(t, err)

	steps := []func() error{
		func() error { return c.Update(tariffOp(day(3), nil)) },
		func() error { return c.Update(tariffOp(day(7), nil)) },
		func() error { return c.Stop(day(12)) },
		func() error { return c.Update(tariffOp(day(4), nil)) },
		func() error { return c.CancelStop(tariffOp(day(12), nil)) },
		func() error { return c.Update(tariffOp(day(2), nil)) },
		func() error { return c.Stop(day(20)) },
		func() error { return c.Stop(day(15)) },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertNoOverlap(t, c)
	}
}

func TestResolutionNext(t *testing.T) {
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(15*time.Minute), ResolutionPT15M.Next(base))
	assert.Equal(t, base.Add(time.Hour), ResolutionPT1H.Next(base))
	assert.Equal(t, base.AddDate(0, 0, 1), ResolutionP1D.Next(base))
	assert.Equal(t, base.AddDate(0, 1, 0), ResolutionP1M.Next(base))
	assert.Equal(t, base, ResolutionUnknown.Next(base))
}
