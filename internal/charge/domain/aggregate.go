package domain

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ChargePeriod is a validity window carrying the charge's descriptive fields.
// A nil EndTime marks an open-ended period.
type ChargePeriod struct {
	Name                 string
	Description          string
	VatClassification    VatClassification
	TransparentInvoicing bool
	StartTime            time.Time
	EndTime              *time.Time
}

// Covers reports whether t lies in [StartTime, EndTime).
func (p ChargePeriod) Covers(t time.Time) bool {
	if t.Before(p.StartTime) {
		return false
	}
	return p.EndTime == nil || t.Before(*p.EndTime)
}

func (p ChargePeriod) withEnd(end *time.Time) ChargePeriod {
	p.EndTime = copyTime(end)
	return p
}

// Charge is the aggregate root for a tariff, fee or subscription.
//
// Periods are kept sorted by StartTime and never overlap.
type Charge struct {
	ID           snowflake.ID
	Identifier   ChargeIdentifier
	Resolution   Resolution
	TaxIndicator bool
	periods      []ChargePeriod
	points       []Point
	dirty        bool
}

// NewCharge creates a charge from a create operation.
func NewCharge(id snowflake.ID, op ChargeOperation) (*Charge, error) {
	if op.EndTime != nil && !op.EndTime.After(op.StartTime) {
		return nil, ErrInvalidPeriod
	}
	c := &Charge{
		ID:           id,
		Identifier:   op.Identifier(),
		Resolution:   op.Resolution,
		TaxIndicator: op.TaxIndicator,
		periods:      []ChargePeriod{op.Period()},
		dirty:        true,
	}
	c.replacePoints(op)
	return c, nil
}

// RestoreCharge rebuilds a charge from persisted state.
func RestoreCharge(id snowflake.ID, identifier ChargeIdentifier, resolution Resolution, taxIndicator bool, periods []ChargePeriod, points []Point) *Charge {
	c := &Charge{
		ID:           id,
		Identifier:   identifier,
		Resolution:   resolution,
		TaxIndicator: taxIndicator,
		periods:      append([]ChargePeriod(nil), periods...),
		points:       append([]Point(nil), points...),
	}
	c.sort()
	return c
}

// Periods returns a copy of the charge periods ordered by start time.
func (c *Charge) Periods() []ChargePeriod {
	return append([]ChargePeriod(nil), c.periods...)
}

// Points returns a copy of the price points ordered by time.
func (c *Charge) Points() []Point {
	return append([]Point(nil), c.points...)
}

// Dirty reports whether the charge has unsaved mutations.
func (c *Charge) Dirty() bool { return c.dirty }

// MarkClean is called by repositories once the charge has been persisted.
func (c *Charge) MarkClean() { c.dirty = false }

// LatestPeriod returns the period with the greatest start time.
func (c *Charge) LatestPeriod() (ChargePeriod, bool) {
	if len(c.periods) == 0 {
		return ChargePeriod{}, false
	}
	return c.periods[len(c.periods)-1], true
}

// StopDate returns the end of the latest period, nil when the charge is open-ended.
func (c *Charge) StopDate() *time.Time {
	latest, ok := c.LatestPeriod()
	if !ok {
		return nil
	}
	return copyTime(latest.EndTime)
}

// Update replaces every period from op.StartTime onwards with the requested period.
// An existing stop date is carried over to the new period. A start before the
// first period replaces the whole history.
func (c *Charge) Update(op ChargeOperation) error {
	if len(c.periods) == 0 {
		return ErrNoPeriods
	}
	stop := c.StopDate()
	if stop != nil && !op.StartTime.Before(*stop) {
		return ErrUpdateAfterStop
	}

	c.cutFrom(op.StartTime)
	c.periods = append(c.periods, op.Period().withEnd(stop))
	c.TaxIndicator = op.TaxIndicator
	c.replacePoints(op)
	c.sort()
	c.dirty = true
	return nil
}

// Stop ends the charge at stopDate, dropping periods and points that start later.
func (c *Charge) Stop(stopDate time.Time) error {
	if len(c.periods) == 0 {
		return ErrNoPeriods
	}
	if !stopDate.After(c.periods[0].StartTime) {
		return ErrInvalidStopDate
	}
	if current := c.StopDate(); current != nil && stopDate.After(*current) {
		return ErrInvalidStopDate
	}

	c.cutFrom(stopDate)
	points := c.points[:0]
	for _, p := range c.points {
		if p.Time.Before(stopDate) {
			points = append(points, p)
		}
	}
	c.points = points
	c.dirty = true
	return nil
}

// CancelStop reopens a stopped charge with a new open-ended period starting at
// the previous stop date.
func (c *Charge) CancelStop(op ChargeOperation) error {
	stop := c.StopDate()
	if stop == nil {
		return ErrChargeNotStopped
	}
	if !op.StartTime.Equal(*stop) {
		return ErrInvalidPeriod
	}

	c.periods = append(c.periods, op.Period().withEnd(nil))
	c.replacePoints(op)
	c.sort()
	c.dirty = true
	return nil
}

// cutFrom removes every period starting at or after t and closes the period covering t.
func (c *Charge) cutFrom(t time.Time) {
	kept := c.periods[:0]
	for _, p := range c.periods {
		if !p.StartTime.Before(t) {
			continue
		}
		if p.Covers(t) {
			p = p.withEnd(&t)
		}
		kept = append(kept, p)
	}
	c.periods = kept
}

// replacePoints swaps the points inside the operation's price series window.
func (c *Charge) replacePoints(op ChargeOperation) {
	if op.SeriesStart == nil || op.SeriesEnd == nil {
		return
	}
	start, end := *op.SeriesStart, *op.SeriesEnd
	kept := make([]Point, 0, len(c.points)+len(op.Points))
	for _, p := range c.points {
		if !p.Time.Before(start) && p.Time.Before(end) {
			continue
		}
		kept = append(kept, p)
	}
	kept = append(kept, op.Points...)
	c.points = kept
	sort.SliceStable(c.points, func(i, j int) bool { return c.points[i].Time.Before(c.points[j].Time) })
}

func (c *Charge) sort() {
	sort.SliceStable(c.periods, func(i, j int) bool { return c.periods[i].StartTime.Before(c.periods[j].StartTime) })
	sort.SliceStable(c.points, func(i, j int) bool { return c.points[i].Time.Before(c.points[j].Time) })
}
