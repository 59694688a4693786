package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/smallbiznis/chargeflow/internal/config"
)

const (
	documentTypeRequestChangeOfPriceList = "D10"
	businessReasonUpdateChargeInfo       = "D18"

	// maxSeriesSteps bounds the point count check for absurd intervals.
	maxSeriesSteps = 100000
)

// InputTarget is everything an input rule may look at. Input rules perform no I/O.
type InputTarget struct {
	Document  chargedomain.Document
	Operation chargedomain.ChargeOperation
	Config    config.ValidationConfig
	Now       time.Time
}

type inputCheck func(t InputTarget) bool

type inputRule struct {
	id    RuleIdentifier
	check inputCheck
}

func (r inputRule) evaluate(t InputTarget) Rule {
	return Rule{
		Identifier:  r.id,
		Valid:       r.check(t),
		OperationID: t.Operation.OperationID,
	}
}

func senderIsMandatory(t InputTarget) bool {
	return strings.TrimSpace(t.Document.Sender.ID) != ""
}

func recipientIsMandatory(t InputTarget) bool {
	return strings.TrimSpace(t.Document.Recipient.ID) != ""
}

func documentTypeIsRequestChangeOfPriceList(t InputTarget) bool {
	return t.Document.Type == documentTypeRequestChangeOfPriceList
}

func businessReasonIsUpdateChargeInformation(t InputTarget) bool {
	return t.Document.BusinessReasonCode == businessReasonUpdateChargeInfo
}

func recipientIsDataHub(t InputTarget) bool {
	return t.Document.Recipient.ID == t.Config.DataHubGLN
}

func operationIDRequired(t InputTarget) bool {
	return strings.TrimSpace(t.Operation.OperationID) != ""
}

func chargeIDRequired(t InputTarget) bool {
	return strings.TrimSpace(t.Operation.ChargeID) != ""
}

func chargeIDLength(t InputTarget) bool {
	return utf8.RuneCountInString(t.Operation.ChargeID) <= t.Config.ChargeIDMaxLength
}

func chargeOwnerRequired(t InputTarget) bool {
	return strings.TrimSpace(t.Operation.ChargeOwnerID) != ""
}

func chargeTypeIsKnown(t InputTarget) bool {
	switch t.Operation.ChargeType {
	case chargedomain.ChargeTypeSubscription, chargedomain.ChargeTypeFee, chargedomain.ChargeTypeTariff:
		return true
	default:
		return false
	}
}

func startDateTimeRequired(t InputTarget) bool {
	return !t.Operation.StartTime.IsZero()
}

// startDateWithinWindow accepts start dates from the beginning of the day
// MaxDaysInPast days ago until the end of the day MaxDaysInFuture days ahead.
// A missing start date is reported by startDateTimeRequired instead.
func startDateWithinWindow(t InputTarget) bool {
	start := t.Operation.StartTime
	if start.IsZero() {
		return true
	}
	today := t.Now.UTC().Truncate(24 * time.Hour)
	earliest := today.AddDate(0, 0, -t.Config.StartDate.MaxDaysInPast)
	latest := today.AddDate(0, 0, t.Config.StartDate.MaxDaysInFuture+1)
	return !start.Before(earliest) && start.Before(latest)
}

func nameMaxLength(t InputTarget) bool {
	return utf8.RuneCountInString(t.Operation.Name) <= t.Config.NameMaxLength
}

func descriptionMaxLength(t InputTarget) bool {
	return utf8.RuneCountInString(t.Operation.Description) <= t.Config.DescriptionMaxLength
}

func priceDigitsAndDecimals(t InputTarget) bool {
	limit := decimal.New(1, t.Config.PriceMaxIntegerDigits)
	for _, p := range t.Operation.Points {
		price := p.Price.Abs()
		if !price.LessThan(limit) {
			return false
		}
		if !price.Equal(price.Truncate(t.Config.PriceMaxDecimals)) {
			return false
		}
	}
	return true
}

func positionsUniqueAndSequential(t InputTarget) bool {
	for i, p := range t.Operation.Points {
		if p.Position != i+1 {
			return false
		}
	}
	return true
}

func pointCountMatchesInterval(t InputTarget) bool {
	op := t.Operation
	if len(op.Points) == 0 || op.SeriesStart == nil || op.SeriesEnd == nil {
		return true
	}
	expected := 0
	for cur := *op.SeriesStart; cur.Before(*op.SeriesEnd); expected++ {
		next := op.PriceResolution.Next(cur)
		if !next.After(cur) || expected >= maxSeriesSteps {
			return false
		}
		cur = next
	}
	return expected == len(op.Points)
}

func resolutionRequired(t InputTarget) bool {
	return t.Operation.Resolution != ""
}

func vatClassificationKnown(t InputTarget) bool {
	switch t.Operation.VatClassification {
	case chargedomain.VatClassificationNoVat, chargedomain.VatClassificationVat25:
		return true
	default:
		return false
	}
}

func endDateAfterStartDate(t InputTarget) bool {
	end := t.Operation.EndTime
	return end == nil || end.After(t.Operation.StartTime)
}

func tariffResolution(t InputTarget) bool {
	switch t.Operation.Resolution {
	case chargedomain.ResolutionPT15M, chargedomain.ResolutionPT1H, chargedomain.ResolutionP1D:
		return true
	default:
		return false
	}
}

func feeSubscriptionResolution(t InputTarget) bool {
	return t.Operation.Resolution == chargedomain.ResolutionP1M
}

func transparentInvoicingNotAllowed(t InputTarget) bool {
	return !t.Operation.TransparentInvoicing
}

func taxIndicatorFalse(t InputTarget) bool {
	return !t.Operation.TaxIndicator
}
