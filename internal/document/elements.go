package document

const (
	RootElement = "RequestChangeOfPriceList_MarketDocument"

	elemMRID                 = "mRID"
	elemType                 = "type"
	elemProcessType          = "process.processType"
	elemBusinessSector       = "businessSector.type"
	elemSenderID             = "sender_MarketParticipant.mRID"
	elemSenderRole           = "sender_MarketParticipant.marketRole.type"
	elemReceiverID           = "receiver_MarketParticipant.mRID"
	elemReceiverRole         = "receiver_MarketParticipant.marketRole.type"
	elemCreatedDateTime      = "createdDateTime"
	elemMeteringPoint        = "marketEvaluationPoint.mRID"
	elemChargeGroup          = "ChargeGroup"
	elemChargeType           = "ChargeType"
	elemChargeOwner          = "chargeTypeOwner_MarketParticipant.mRID"
	elemName                 = "name"
	elemDescription          = "description"
	elemPriceResolution      = "priceTimeFrame_Period.resolution"
	elemEffectiveDate        = "effectiveDate"
	elemTerminationDate      = "terminationDate"
	elemVatPayer             = "VATPayer"
	elemTransparentInvoicing = "transparentInvoicing"
	elemTaxIndicator         = "taxIndicator"
	elemSeriesPeriod         = "Series_Period"
	elemResolution           = "resolution"
	elemTimeInterval         = "timeInterval"
	elemStart                = "start"
	elemEnd                  = "end"
	elemPoint                = "Point"
	elemPosition             = "position"
	elemPriceAmount          = "price.amount"
)

var headerFields = map[string]bool{
	elemMRID:            true,
	elemType:            true,
	elemProcessType:     true,
	elemBusinessSector:  true,
	elemSenderID:        true,
	elemSenderRole:      true,
	elemReceiverID:      true,
	elemReceiverRole:    true,
	elemCreatedDateTime: true,
}

var requiredHeaderFields = []string{
	elemMRID,
	elemType,
	elemProcessType,
	elemSenderID,
	elemSenderRole,
	elemReceiverID,
	elemReceiverRole,
	elemCreatedDateTime,
}

var operationFields = map[string]bool{
	elemMRID:          true,
	elemMeteringPoint: true,
}

var chargeTypeFields = map[string]bool{
	elemChargeOwner:          true,
	elemType:                 true,
	elemMRID:                 true,
	elemName:                 true,
	elemDescription:          true,
	elemPriceResolution:      true,
	elemEffectiveDate:        true,
	elemTerminationDate:      true,
	elemVatPayer:             true,
	elemTransparentInvoicing: true,
	elemTaxIndicator:         true,
}

var requiredChargeTypeFields = []string{
	elemChargeOwner,
	elemType,
	elemMRID,
	elemEffectiveDate,
}

var seriesFields = map[string]bool{
	elemResolution: true,
}

var intervalFields = map[string]bool{
	elemStart: true,
	elemEnd:   true,
}

var pointFields = map[string]bool{
	elemPosition:    true,
	elemPriceAmount: true,
}
