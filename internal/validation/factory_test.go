package validation

import (
	"testing"

	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inputPrefix = []RuleIdentifier{
	SenderIsMandatory,
	RecipientIsMandatory,
	DocumentTypeMustBeRequestChangeOfPriceList,
	BusinessReasonCodeMustBeUpdateChargeInformation,
	RecipientMustBeDataHub,
	ChargeOperationIdRequired,
	ChargeIdRequired,
	ChargeIdLengthValidation,
	ChargeOwnerIsRequired,
	ChargeTypeIsKnown,
	StartDateTimeRequired,
	StartDateValidation,
	ChargeNameHasMaximumLength,
	ChargeDescriptionHasMaximumLength,
	ChargePriceMaximumDigitsAndDecimals,
	PositionsAreUniqueAndSequential,
	NumberOfPointsMatchTimeIntervalAndResolution,
}

func withPrefix(ids ...RuleIdentifier) []RuleIdentifier {
	out := append([]RuleIdentifier{}, inputPrefix...)
	return append(out, ids...)
}

func TestInputRuleOrder(t *testing.T) {
	f := NewRuleFactory()

	cases := []struct {
		name       string
		opType     chargedomain.OperationType
		chargeType chargedomain.ChargeType
		want       []RuleIdentifier
	}{
		{
			name:       "update tariff",
			opType:     chargedomain.OperationTypeUpdate,
			chargeType: chargedomain.ChargeTypeTariff,
			want: withPrefix(ResolutionIsRequired, VatClassificationValidation, EndDateMustBeAfterStartDate,
				ResolutionTariffValidation),
		},
		{
			name:       "create fee",
			opType:     chargedomain.OperationTypeCreate,
			chargeType: chargedomain.ChargeTypeFee,
			want: withPrefix(ResolutionIsRequired, VatClassificationValidation, EndDateMustBeAfterStartDate,
				ResolutionFeeSubscriptionValidation, TransparentInvoicingIsNotAllowedForFee,
				TaxIndicatorMustBeFalseForFeeAndSubscription),
		},
		{
			name:       "cancel stop subscription",
			opType:     chargedomain.OperationTypeCancelStop,
			chargeType: chargedomain.ChargeTypeSubscription,
			want: withPrefix(ResolutionIsRequired, VatClassificationValidation,
				ResolutionFeeSubscriptionValidation, TaxIndicatorMustBeFalseForFeeAndSubscription),
		},
		{
			name:       "stop tariff",
			opType:     chargedomain.OperationTypeStop,
			chargeType: chargedomain.ChargeTypeTariff,
			want:       withPrefix(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.InputRuleIdentifiers(tc.opType, tc.chargeType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			again, err := f.InputRuleIdentifiers(tc.opType, tc.chargeType)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestBusinessRuleOrder(t *testing.T) {
	f := NewRuleFactory()
	common := []RuleIdentifier{CommandSenderMustBeAnExistingMarketParticipant, ChargeOwnerMustMatchSender}

	got, err := f.BusinessRuleIdentifiers(chargedomain.OperationTypeUpdate, chargedomain.ChargeTypeTariff)
	require.NoError(t, err)
	assert.Equal(t, append(append([]RuleIdentifier{}, common...),
		UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate,
		ChargeResolutionCanNotBeUpdated,
		ChangingTariffTaxValueNotAllowed,
		ChangingTariffVatValueNotAllowed,
	), got)

	got, err = f.BusinessRuleIdentifiers(chargedomain.OperationTypeUpdate, chargedomain.ChargeTypeFee)
	require.NoError(t, err)
	assert.Equal(t, append(append([]RuleIdentifier{}, common...),
		UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate,
		ChargeResolutionCanNotBeUpdated,
	), got)

	got, err = f.BusinessRuleIdentifiers(chargedomain.OperationTypeCreate, chargedomain.ChargeTypeSubscription)
	require.NoError(t, err)
	assert.Equal(t, append(append([]RuleIdentifier{}, common...), CreateChargeIsNotAllowedATerminationDate), got)

	got, err = f.BusinessRuleIdentifiers(chargedomain.OperationTypeStop, chargedomain.ChargeTypeTariff)
	require.NoError(t, err)
	assert.Equal(t, append(append([]RuleIdentifier{}, common...), StopChargeDateMustBeWithinExistingPeriods), got)

	got, err = f.BusinessRuleIdentifiers(chargedomain.OperationTypeCancelStop, chargedomain.ChargeTypeTariff)
	require.NoError(t, err)
	assert.Equal(t, common, got)
}

func TestUnrecognizedChargeTypeUsesCommonRules(t *testing.T) {
	f := NewRuleFactory()

	got, err := f.InputRuleIdentifiers(chargedomain.OperationTypeCreate, chargedomain.ChargeType("D99"))
	require.NoError(t, err)
	assert.Equal(t, withPrefix(ResolutionIsRequired, VatClassificationValidation, EndDateMustBeAfterStartDate), got)
}

func TestUnknownOperationTypeHasNoRuleSet(t *testing.T) {
	f := NewRuleFactory()

	_, err := f.InputRuleIdentifiers(chargedomain.OperationTypeUnknown, chargedomain.ChargeTypeTariff)
	assert.ErrorIs(t, err, chargedomain.ErrUnknownOperationType)

	_, err = f.BusinessRuleIdentifiers(chargedomain.OperationTypeUnknown, chargedomain.ChargeTypeTariff)
	assert.ErrorIs(t, err, chargedomain.ErrUnknownOperationType)
}
