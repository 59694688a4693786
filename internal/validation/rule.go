package validation

// RuleIdentifier names one validation rule in outcome reports.
type RuleIdentifier string

// Document rules.
const (
	SenderIsMandatory                               RuleIdentifier = "SenderIsMandatory"
	RecipientIsMandatory                            RuleIdentifier = "RecipientIsMandatory"
	DocumentTypeMustBeRequestChangeOfPriceList      RuleIdentifier = "DocumentTypeMustBeRequestChangeOfPriceList"
	BusinessReasonCodeMustBeUpdateChargeInformation RuleIdentifier = "BusinessReasonCodeMustBeUpdateChargeInformation"
	RecipientMustBeDataHub                          RuleIdentifier = "RecipientMustBeDataHub"
)

// Operation input rules.
const (
	ChargeOperationIdRequired                    RuleIdentifier = "ChargeOperationIdRequired"
	ChargeIdRequired                             RuleIdentifier = "ChargeIdRequired"
	ChargeIdLengthValidation                     RuleIdentifier = "ChargeIdLengthValidation"
	ChargeOwnerIsRequired                        RuleIdentifier = "ChargeOwnerIsRequired"
	ChargeTypeIsKnown                            RuleIdentifier = "ChargeTypeIsKnown"
	StartDateTimeRequired                        RuleIdentifier = "StartDateTimeRequired"
	StartDateValidation                          RuleIdentifier = "StartDateValidation"
	ChargeNameHasMaximumLength                   RuleIdentifier = "ChargeNameHasMaximumLength"
	ChargeDescriptionHasMaximumLength            RuleIdentifier = "ChargeDescriptionHasMaximumLength"
	ChargePriceMaximumDigitsAndDecimals          RuleIdentifier = "ChargePriceMaximumDigitsAndDecimals"
	PositionsAreUniqueAndSequential              RuleIdentifier = "PositionsAreUniqueAndSequential"
	NumberOfPointsMatchTimeIntervalAndResolution RuleIdentifier = "NumberOfPointsMatchTimeIntervalAndResolution"
	ResolutionIsRequired                         RuleIdentifier = "ResolutionIsRequired"
	VatClassificationValidation                  RuleIdentifier = "VatClassificationValidation"
	EndDateMustBeAfterStartDate                  RuleIdentifier = "EndDateMustBeAfterStartDate"
	ResolutionTariffValidation                   RuleIdentifier = "ResolutionTariffValidation"
	ResolutionFeeSubscriptionValidation          RuleIdentifier = "ResolutionFeeSubscriptionValidation"
	TransparentInvoicingIsNotAllowedForFee       RuleIdentifier = "TransparentInvoicingIsNotAllowedForFee"
	TaxIndicatorMustBeFalseForFeeAndSubscription RuleIdentifier = "TaxIndicatorMustBeFalseForFeeAndSubscription"
)

// Business rules.
const (
	CommandSenderMustBeAnExistingMarketParticipant      RuleIdentifier = "CommandSenderMustBeAnExistingMarketParticipant"
	ChargeOwnerMustMatchSender                          RuleIdentifier = "ChargeOwnerMustMatchSender"
	CreateChargeIsNotAllowedATerminationDate            RuleIdentifier = "CreateChargeIsNotAllowedATerminationDate"
	UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate RuleIdentifier = "UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate"
	ChargeResolutionCanNotBeUpdated                     RuleIdentifier = "ChargeResolutionCanNotBeUpdated"
	ChangingTariffTaxValueNotAllowed                    RuleIdentifier = "ChangingTariffTaxValueNotAllowed"
	ChangingTariffVatValueNotAllowed                    RuleIdentifier = "ChangingTariffVatValueNotAllowed"
	StopChargeDateMustBeWithinExistingPeriods           RuleIdentifier = "StopChargeDateMustBeWithinExistingPeriods"
)

// PreviousOperationsMustBeValid marks an operation rejected because an
// earlier operation in the same bundle failed.
const PreviousOperationsMustBeValid RuleIdentifier = "PreviousOperationsMustBeValid"

// ParamTriggeredBy holds the operation id that caused a cascaded rejection.
const ParamTriggeredBy = "triggered_by"

// Rule is the outcome of evaluating one rule against one operation.
type Rule struct {
	Identifier  RuleIdentifier
	Valid       bool
	OperationID string
	Params      map[string]string
}

// Cascaded builds the rule attached to operations rejected after failedOperationID.
func Cascaded(operationID, failedOperationID string) Rule {
	return Rule{
		Identifier:  PreviousOperationsMustBeValid,
		Valid:       false,
		OperationID: operationID,
		Params:      map[string]string{ParamTriggeredBy: failedOperationID},
	}
}

// IsCascaded reports whether the rule stems from an earlier failure rather than the operation itself.
func (r Rule) IsCascaded() bool {
	return r.Identifier == PreviousOperationsMustBeValid
}
