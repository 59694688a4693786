package validation

import (
	"fmt"

	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
)

type ruleSetKey struct {
	operationType chargedomain.OperationType
	chargeType    chargedomain.ChargeType
}

// RuleFactory is a lookup table of ordered rule sets keyed by operation type and charge type.
// The order inside each set is stable and is the order rules are reported in.
type RuleFactory struct {
	input    map[ruleSetKey][]inputRule
	business map[ruleSetKey][]businessRule
}

var (
	operationTypes = []chargedomain.OperationType{
		chargedomain.OperationTypeCreate,
		chargedomain.OperationTypeUpdate,
		chargedomain.OperationTypeStop,
		chargedomain.OperationTypeCancelStop,
	}
	chargeTypes = []chargedomain.ChargeType{
		chargedomain.ChargeTypeUnknown,
		chargedomain.ChargeTypeSubscription,
		chargedomain.ChargeTypeFee,
		chargedomain.ChargeTypeTariff,
	}
)

var documentRules = []inputRule{
	{SenderIsMandatory, senderIsMandatory},
	{RecipientIsMandatory, recipientIsMandatory},
	{DocumentTypeMustBeRequestChangeOfPriceList, documentTypeIsRequestChangeOfPriceList},
	{BusinessReasonCodeMustBeUpdateChargeInformation, businessReasonIsUpdateChargeInformation},
	{RecipientMustBeDataHub, recipientIsDataHub},
}

var commonOperationRules = []inputRule{
	{ChargeOperationIdRequired, operationIDRequired},
	{ChargeIdRequired, chargeIDRequired},
	{ChargeIdLengthValidation, chargeIDLength},
	{ChargeOwnerIsRequired, chargeOwnerRequired},
	{ChargeTypeIsKnown, chargeTypeIsKnown},
	{StartDateTimeRequired, startDateTimeRequired},
	{StartDateValidation, startDateWithinWindow},
	{ChargeNameHasMaximumLength, nameMaxLength},
	{ChargeDescriptionHasMaximumLength, descriptionMaxLength},
	{ChargePriceMaximumDigitsAndDecimals, priceDigitsAndDecimals},
	{PositionsAreUniqueAndSequential, positionsUniqueAndSequential},
	{NumberOfPointsMatchTimeIntervalAndResolution, pointCountMatchesInterval},
}

var commonBusinessRules = []businessRule{
	{CommandSenderMustBeAnExistingMarketParticipant, senderIsActiveParticipant},
	{ChargeOwnerMustMatchSender, pure(ownerMatchesSender)},
}

func NewRuleFactory() *RuleFactory {
	f := &RuleFactory{
		input:    make(map[ruleSetKey][]inputRule),
		business: make(map[ruleSetKey][]businessRule),
	}
	for _, opType := range operationTypes {
		for _, chargeType := range chargeTypes {
			key := ruleSetKey{operationType: opType, chargeType: chargeType}
			f.input[key] = buildInputRules(opType, chargeType)
			f.business[key] = buildBusinessRules(opType, chargeType)
		}
	}
	return f
}

func buildInputRules(opType chargedomain.OperationType, chargeType chargedomain.ChargeType) []inputRule {
	rules := make([]inputRule, 0, len(documentRules)+len(commonOperationRules)+6)
	rules = append(rules, documentRules...)
	rules = append(rules, commonOperationRules...)
	if opType == chargedomain.OperationTypeStop {
		return rules
	}

	rules = append(rules,
		inputRule{ResolutionIsRequired, resolutionRequired},
		inputRule{VatClassificationValidation, vatClassificationKnown},
	)
	if opType == chargedomain.OperationTypeCreate || opType == chargedomain.OperationTypeUpdate {
		rules = append(rules, inputRule{EndDateMustBeAfterStartDate, endDateAfterStartDate})
	}

	switch chargeType {
	case chargedomain.ChargeTypeTariff:
		rules = append(rules, inputRule{ResolutionTariffValidation, tariffResolution})
	case chargedomain.ChargeTypeFee:
		rules = append(rules,
			inputRule{ResolutionFeeSubscriptionValidation, feeSubscriptionResolution},
			inputRule{TransparentInvoicingIsNotAllowedForFee, transparentInvoicingNotAllowed},
			inputRule{TaxIndicatorMustBeFalseForFeeAndSubscription, taxIndicatorFalse},
		)
	case chargedomain.ChargeTypeSubscription:
		rules = append(rules,
			inputRule{ResolutionFeeSubscriptionValidation, feeSubscriptionResolution},
			inputRule{TaxIndicatorMustBeFalseForFeeAndSubscription, taxIndicatorFalse},
		)
	}
	return rules
}

func buildBusinessRules(opType chargedomain.OperationType, chargeType chargedomain.ChargeType) []businessRule {
	rules := make([]businessRule, 0, len(commonBusinessRules)+4)
	rules = append(rules, commonBusinessRules...)

	switch opType {
	case chargedomain.OperationTypeCreate:
		rules = append(rules, businessRule{CreateChargeIsNotAllowedATerminationDate, pure(createHasNoTerminationDate)})
	case chargedomain.OperationTypeUpdate:
		rules = append(rules,
			businessRule{UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate, pure(updateStartsBeforeStopDate)},
			businessRule{ChargeResolutionCanNotBeUpdated, pure(resolutionUnchanged)},
		)
		if chargeType == chargedomain.ChargeTypeTariff {
			rules = append(rules,
				businessRule{ChangingTariffTaxValueNotAllowed, pure(tariffTaxUnchanged)},
				businessRule{ChangingTariffVatValueNotAllowed, pure(tariffVatUnchanged)},
			)
		}
	case chargedomain.OperationTypeStop:
		rules = append(rules, businessRule{StopChargeDateMustBeWithinExistingPeriods, pure(stopWithinExistingPeriods)})
	}
	return rules
}

func (f *RuleFactory) key(opType chargedomain.OperationType, chargeType chargedomain.ChargeType) (ruleSetKey, error) {
	key := ruleSetKey{operationType: opType, chargeType: chargeType}
	if _, ok := f.input[key]; ok {
		return key, nil
	}
	key.chargeType = chargedomain.ChargeTypeUnknown
	if _, ok := f.input[key]; ok {
		return key, nil
	}
	return ruleSetKey{}, fmt.Errorf("%w: no rule set for %s", chargedomain.ErrUnknownOperationType, opType)
}

// InputRuleIdentifiers lists the input rules evaluated for the pair, in order.
func (f *RuleFactory) InputRuleIdentifiers(opType chargedomain.OperationType, chargeType chargedomain.ChargeType) ([]RuleIdentifier, error) {
	key, err := f.key(opType, chargeType)
	if err != nil {
		return nil, err
	}
	ids := make([]RuleIdentifier, 0, len(f.input[key]))
	for _, r := range f.input[key] {
		ids = append(ids, r.id)
	}
	return ids, nil
}

// BusinessRuleIdentifiers lists the business rules evaluated for the pair, in order.
func (f *RuleFactory) BusinessRuleIdentifiers(opType chargedomain.OperationType, chargeType chargedomain.ChargeType) ([]RuleIdentifier, error) {
	key, err := f.key(opType, chargeType)
	if err != nil {
		return nil, err
	}
	ids := make([]RuleIdentifier, 0, len(f.business[key]))
	for _, r := range f.business[key] {
		ids = append(ids, r.id)
	}
	return ids, nil
}
