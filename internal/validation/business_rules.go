package validation

import (
	"context"
	"time"

	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	participantdomain "github.com/smallbiznis/chargeflow/internal/marketparticipant/domain"
)

// BusinessTarget is what a business rule may look at. Existing is nil for Create.
type BusinessTarget struct {
	Document     chargedomain.Document
	Operation    chargedomain.ChargeOperation
	Existing     *chargedomain.Charge
	Participants participantdomain.Repository
}

type businessCheck func(ctx context.Context, t BusinessTarget) (bool, error)

type businessRule struct {
	id    RuleIdentifier
	check businessCheck
}

func (r businessRule) evaluate(ctx context.Context, t BusinessTarget) (Rule, error) {
	valid, err := r.check(ctx, t)
	if err != nil {
		return Rule{}, err
	}
	return Rule{
		Identifier:  r.id,
		Valid:       valid,
		OperationID: t.Operation.OperationID,
	}, nil
}

// pure adapts a check that needs no repository access.
func pure(fn func(t BusinessTarget) bool) businessCheck {
	return func(_ context.Context, t BusinessTarget) (bool, error) {
		return fn(t), nil
	}
}

func senderIsActiveParticipant(ctx context.Context, t BusinessTarget) (bool, error) {
	if t.Participants == nil {
		return false, nil
	}
	participant, err := t.Participants.FindByMarketParticipantID(ctx, t.Document.Sender.ID)
	if err != nil {
		return false, err
	}
	return participant != nil && participant.IsActive, nil
}

func ownerMatchesSender(t BusinessTarget) bool {
	return t.Operation.ChargeOwnerID == t.Document.Sender.ID
}

func createHasNoTerminationDate(t BusinessTarget) bool {
	return t.Operation.EndTime == nil
}

func updateStartsBeforeStopDate(t BusinessTarget) bool {
	if t.Existing == nil {
		return true
	}
	stop := t.Existing.StopDate()
	return stop == nil || t.Operation.StartTime.Before(*stop)
}

func resolutionUnchanged(t BusinessTarget) bool {
	if t.Existing == nil {
		return true
	}
	return t.Operation.Resolution == t.Existing.Resolution
}

func tariffTaxUnchanged(t BusinessTarget) bool {
	if t.Existing == nil {
		return true
	}
	return t.Operation.TaxIndicator == t.Existing.TaxIndicator
}

func tariffVatUnchanged(t BusinessTarget) bool {
	if t.Existing == nil {
		return true
	}
	period, ok := periodAt(t.Existing, t.Operation.StartTime)
	if !ok {
		return true
	}
	return t.Operation.VatClassification == period.VatClassification
}

func stopWithinExistingPeriods(t BusinessTarget) bool {
	if t.Existing == nil {
		return false
	}
	periods := t.Existing.Periods()
	if len(periods) == 0 {
		return false
	}
	stopDate := t.Operation.StartTime
	if !stopDate.After(periods[0].StartTime) {
		return false
	}
	current := t.Existing.StopDate()
	return current == nil || !stopDate.After(*current)
}

// periodAt returns the period covering at, or the latest one if none does.
func periodAt(c *chargedomain.Charge, at time.Time) (chargedomain.ChargePeriod, bool) {
	for _, p := range c.Periods() {
		if p.Covers(at) {
			return p, true
		}
	}
	return c.LatestPeriod()
}
