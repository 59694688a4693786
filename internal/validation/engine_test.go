package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/smallbiznis/chargeflow/internal/clock"
	"github.com/smallbiznis/chargeflow/internal/config"
	participantdomain "github.com/smallbiznis/chargeflow/internal/marketparticipant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	gridOperator = "5790000000005"
)

type participantRepoMock struct {
	mock.Mock
}

func (m *participantRepoMock) FindByMarketParticipantID(ctx context.Context, id string) (*participantdomain.MarketParticipant, error) {
	args := m.Called(ctx, id)
	participant, _ := args.Get(0).(*participantdomain.MarketParticipant)
	return participant, args.Error(1)
}

var (
	now        = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	validStart = time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC)
)

func newTestEngine(participants participantdomain.Repository) *Engine {
	return NewEngine(Params{
		Config:       config.NewStaticValidationConfigHolder(config.DefaultValidationConfig()),
		Clock:        clock.NewFakeClock(now),
		Participants: participants,
	})
}

func validDocument() chargedomain.Document {
	return chargedomain.Document{
		ID:                 "DOC-1",
		Type:               "D10",
		BusinessReasonCode: "D18",
		CreatedAt:          now,
		Sender:             chargedomain.MarketParticipantRef{ID: gridOperator, Role: chargedomain.RoleGridAccessProvider},
		Recipient:          chargedomain.MarketParticipantRef{ID: config.DefaultValidationConfig().DataHubGLN, Role: chargedomain.RoleMeteringPointAdmin},
	}
}

func validTariff(start time.Time) chargedomain.ChargeOperation {
	seriesEnd := start.Add(3 * time.Hour)
	seriesStart := start
	return chargedomain.ChargeOperation{
		OperationID:       "OP-1",
		ChargeType:        chargedomain.ChargeTypeTariff,
		ChargeID:          "NT-C",
		ChargeOwnerID:     gridOperator,
		Name:              "Net tariff C",
		Description:       "Hourly net tariff",
		Resolution:        chargedomain.ResolutionPT1H,
		VatClassification: chargedomain.VatClassificationVat25,
		StartTime:         start,
		PriceResolution:   chargedomain.ResolutionPT1H,
		SeriesStart:       &seriesStart,
		SeriesEnd:         &seriesEnd,
		Points: []chargedomain.Point{
			{Position: 1, Price: decimal.RequireFromString("0.25"), Time: start},
			{Position: 2, Price: decimal.RequireFromString("0.5"), Time: start.Add(time.Hour)},
			{Position: 3, Price: decimal.RequireFromString("12345678.123456"), Time: start.Add(2 * time.Hour)},
		},
	}
}

func invalidIDs(result Result) []RuleIdentifier {
	var ids []RuleIdentifier
	for _, r := range result.InvalidRules() {
		ids = append(ids, r.Identifier)
	}
	return ids
}

func TestValidateInputAcceptsValidCreate(t *testing.T) {
	engine := newTestEngine(nil)

	result, err := engine.ValidateInput(validDocument(), validTariff(validStart), chargedomain.OperationTypeCreate)
	require.NoError(t, err)
	assert.True(t, result.Success(), "unexpected invalid rules: %v", invalidIDs(result))
}

func TestValidateInputCollectsAllViolations(t *testing.T) {
	engine := newTestEngine(nil)

	op := validTariff(validStart)
	op.ChargeID = ""
	op.ChargeOwnerID = ""
	op.VatClassification = chargedomain.VatClassificationUnknown

	result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeUpdate)
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, []RuleIdentifier{ChargeIdRequired, ChargeOwnerIsRequired, VatClassificationValidation}, invalidIDs(result))
	for _, r := range result.InvalidRules() {
		assert.Equal(t, "OP-1", r.OperationID)
	}
}

func TestValidateInputDocumentRules(t *testing.T) {
	engine := newTestEngine(nil)

	doc := validDocument()
	doc.Type = "D05"
	doc.BusinessReasonCode = "D17"
	doc.Recipient.ID = "5790000000999"

	result, err := engine.ValidateInput(doc, validTariff(validStart), chargedomain.OperationTypeCreate)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{
		DocumentTypeMustBeRequestChangeOfPriceList,
		BusinessReasonCodeMustBeUpdateChargeInformation,
		RecipientMustBeDataHub,
	}, invalidIDs(result))
}

func TestValidateInputStartDateWindow(t *testing.T) {
	engine := newTestEngine(nil)

	cases := []struct {
		name  string
		start time.Time
		valid bool
	}{
		{name: "start of earliest day", start: time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "before earliest day", start: time.Date(2024, 2, 12, 23, 0, 0, 0, time.UTC), valid: false},
		{name: "last future day", start: time.Date(2026, 12, 10, 23, 0, 0, 0, time.UTC), valid: true},
		{name: "beyond future window", start: time.Date(2026, 12, 11, 0, 0, 0, 0, time.UTC), valid: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			op := validTariff(tc.start)
			result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
			require.NoError(t, err)
			if tc.valid {
				assert.True(t, result.Success(), "unexpected invalid rules: %v", invalidIDs(result))
				return
			}
			assert.Equal(t, []RuleIdentifier{StartDateValidation}, invalidIDs(result))
		})
	}
}

func TestValidateInputStartDateWindowFollowsClock(t *testing.T) {
	fake := clock.NewFakeClock(now)
	engine := NewEngine(Params{
		Config: config.NewStaticValidationConfigHolder(config.DefaultValidationConfig()),
		Clock:  fake,
	})
	op := validTariff(time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC))

	result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
	require.NoError(t, err)
	assert.True(t, result.Success())

	fake.Advance(24 * time.Hour)
	result, err = engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{StartDateValidation}, invalidIDs(result))

	fake.Set(now)
	result, err = engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
	require.NoError(t, err)
	assert.True(t, result.Success())
}

func TestValidateInputMissingStartDateReportedOnce(t *testing.T) {
	engine := newTestEngine(nil)

	op := validTariff(validStart)
	op.StartTime = time.Time{}

	result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeStop)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{StartDateTimeRequired}, invalidIDs(result))
}

func TestValidateInputPriceSeries(t *testing.T) {
	engine := newTestEngine(nil)

	t.Run("too many integer digits", func(t *testing.T) {
		op := validTariff(validStart)
		op.Points[0].Price = decimal.RequireFromString("123456789")
		result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
		require.NoError(t, err)
		assert.Equal(t, []RuleIdentifier{ChargePriceMaximumDigitsAndDecimals}, invalidIDs(result))
	})

	t.Run("too many decimals", func(t *testing.T) {
		op := validTariff(validStart)
		op.Points[1].Price = decimal.RequireFromString("0.1234567")
		result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
		require.NoError(t, err)
		assert.Equal(t, []RuleIdentifier{ChargePriceMaximumDigitsAndDecimals}, invalidIDs(result))
	})

	t.Run("positions out of sequence", func(t *testing.T) {
		op := validTariff(validStart)
		op.Points[1].Position = 3
		op.Points[2].Position = 2
		result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
		require.NoError(t, err)
		assert.Equal(t, []RuleIdentifier{PositionsAreUniqueAndSequential}, invalidIDs(result))
	})

	t.Run("point count differs from interval", func(t *testing.T) {
		op := validTariff(validStart)
		op.Points = op.Points[:2]
		result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
		require.NoError(t, err)
		assert.Equal(t, []RuleIdentifier{NumberOfPointsMatchTimeIntervalAndResolution}, invalidIDs(result))
	})
}

func TestValidateInputFeeRules(t *testing.T) {
	engine := newTestEngine(nil)

	op := validTariff(validStart)
	op.ChargeType = chargedomain.ChargeTypeFee
	op.SeriesStart, op.SeriesEnd, op.Points = nil, nil, nil
	op.TransparentInvoicing = true
	op.TaxIndicator = true

	result, err := engine.ValidateInput(validDocument(), op, chargedomain.OperationTypeCreate)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{
		ResolutionFeeSubscriptionValidation,
		TransparentInvoicingIsNotAllowedForFee,
		TaxIndicatorMustBeFalseForFeeAndSubscription,
	}, invalidIDs(result))
}

func TestValidateInputUnknownOperationType(t *testing.T) {
	engine := newTestEngine(nil)

	_, err := engine.ValidateInput(validDocument(), validTariff(validStart), chargedomain.OperationTypeUnknown)
	assert.ErrorIs(t, err, chargedomain.ErrUnknownOperationType)
}

func activeSender() *participantdomain.MarketParticipant {
	return &participantdomain.MarketParticipant{ID: 1, MarketParticipantID: gridOperator, BusinessProcessRole: "DDM", IsActive: true}
}

func existingTariff(t *testing.T) *chargedomain.Charge {
	t.Helper()
	charge, err := chargedomain.NewCharge(1, validTariff(validStart))
	require.NoError(t, err)
	return charge
}

func TestValidateBusinessCreate(t *testing.T) {
	repo := &participantRepoMock{}
	repo.On("FindByMarketParticipantID", mock.Anything, gridOperator).Return(activeSender(), nil)
	engine := newTestEngine(repo)

	result, err := engine.ValidateBusiness(context.Background(), validDocument(), validTariff(validStart), chargedomain.OperationTypeCreate, nil)
	require.NoError(t, err)
	assert.True(t, result.Success())

	op := validTariff(validStart)
	end := validStart.AddDate(0, 1, 0)
	op.EndTime = &end
	op.ChargeOwnerID = "5790000000111"
	result, err = engine.ValidateBusiness(context.Background(), validDocument(), op, chargedomain.OperationTypeCreate, nil)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{ChargeOwnerMustMatchSender, CreateChargeIsNotAllowedATerminationDate}, invalidIDs(result))

	repo.AssertExpectations(t)
}

func TestValidateBusinessUnknownOrInactiveSender(t *testing.T) {
	inactive := activeSender()
	inactive.IsActive = false

	for name, participant := range map[string]*participantdomain.MarketParticipant{"unknown": nil, "inactive": inactive} {
		t.Run(name, func(t *testing.T) {
			repo := &participantRepoMock{}
			repo.On("FindByMarketParticipantID", mock.Anything, gridOperator).Return(participant, nil)
			engine := newTestEngine(repo)

			result, err := engine.ValidateBusiness(context.Background(), validDocument(), validTariff(validStart), chargedomain.OperationTypeCreate, nil)
			require.NoError(t, err)
			assert.Equal(t, []RuleIdentifier{CommandSenderMustBeAnExistingMarketParticipant}, invalidIDs(result))
		})
	}
}

func TestValidateBusinessPropagatesRepositoryError(t *testing.T) {
	repoErr := errors.New("connection refused")
	repo := &participantRepoMock{}
	repo.On("FindByMarketParticipantID", mock.Anything, gridOperator).Return(nil, repoErr)
	engine := newTestEngine(repo)

	_, err := engine.ValidateBusiness(context.Background(), validDocument(), validTariff(validStart), chargedomain.OperationTypeCreate, nil)
	assert.ErrorIs(t, err, repoErr)
}

func TestValidateBusinessTariffUpdateImmutables(t *testing.T) {
	repo := &participantRepoMock{}
	repo.On("FindByMarketParticipantID", mock.Anything, gridOperator).Return(activeSender(), nil)
	engine := newTestEngine(repo)
	existing := existingTariff(t)

	op := validTariff(validStart.AddDate(0, 1, 0))
	op.TaxIndicator = true
	op.VatClassification = chargedomain.VatClassificationNoVat
	op.Resolution = chargedomain.ResolutionP1D

	result, err := engine.ValidateBusiness(context.Background(), validDocument(), op, chargedomain.OperationTypeUpdate, existing)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{
		ChargeResolutionCanNotBeUpdated,
		ChangingTariffTaxValueNotAllowed,
		ChangingTariffVatValueNotAllowed,
	}, invalidIDs(result))
}

func TestValidateBusinessUpdateAfterStopDate(t *testing.T) {
	repo := &participantRepoMock{}
	repo.On("FindByMarketParticipantID", mock.Anything, gridOperator).Return(activeSender(), nil)
	engine := newTestEngine(repo)
	existing := existingTariff(t)
	require.NoError(t, existing.Stop(validStart.AddDate(0, 2, 0)))

	op := validTariff(validStart.AddDate(0, 3, 0))
	result, err := engine.ValidateBusiness(context.Background(), validDocument(), op, chargedomain.OperationTypeUpdate, existing)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate}, invalidIDs(result))
}

func TestValidateBusinessStopDate(t *testing.T) {
	repo := &participantRepoMock{}
	repo.On("FindByMarketParticipantID", mock.Anything, gridOperator).Return(activeSender(), nil)
	engine := newTestEngine(repo)

	stopAt := func(at time.Time) chargedomain.ChargeOperation {
		op := validTariff(at)
		op.EndTime = &at
		return op
	}

	existing := existingTariff(t)
	result, err := engine.ValidateBusiness(context.Background(), validDocument(), stopAt(validStart.AddDate(0, 1, 0)), chargedomain.OperationTypeStop, existing)
	require.NoError(t, err)
	assert.True(t, result.Success())

	result, err = engine.ValidateBusiness(context.Background(), validDocument(), stopAt(validStart), chargedomain.OperationTypeStop, existing)
	require.NoError(t, err)
	assert.Equal(t, []RuleIdentifier{StopChargeDateMustBeWithinExistingPeriods}, invalidIDs(result))
}

func TestValidateBusinessRequiresExistingChargeForUpdate(t *testing.T) {
	engine := newTestEngine(&participantRepoMock{})

	_, err := engine.ValidateBusiness(context.Background(), validDocument(), validTariff(validStart), chargedomain.OperationTypeUpdate, nil)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
