package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ChargeType string

var (
	ChargeTypeUnknown      ChargeType = "UNKNOWN"
	ChargeTypeSubscription ChargeType = "SUBSCRIPTION"
	ChargeTypeFee          ChargeType = "FEE"
	ChargeTypeTariff       ChargeType = "TARIFF"
)

type Resolution string

var (
	ResolutionUnknown Resolution = "UNKNOWN"
	ResolutionPT15M   Resolution = "PT15M"
	ResolutionPT1H    Resolution = "PT1H"
	ResolutionP1D     Resolution = "P1D"
	ResolutionP1M     Resolution = "P1M"
)

// Next returns the instant one resolution step after t.
func (r Resolution) Next(t time.Time) time.Time {
	switch r {
	case ResolutionPT15M:
		return t.Add(15 * time.Minute)
	case ResolutionPT1H:
		return t.Add(time.Hour)
	case ResolutionP1D:
		return t.AddDate(0, 0, 1)
	case ResolutionP1M:
		return t.AddDate(0, 1, 0)
	default:
		return t
	}
}

type VatClassification string

var (
	VatClassificationUnknown VatClassification = "UNKNOWN"
	VatClassificationNoVat   VatClassification = "NO_VAT"
	VatClassificationVat25   VatClassification = "VAT25"
)

type MarketParticipantRole string

var (
	RoleUnknown                MarketParticipantRole = "UNKNOWN"
	RoleGridAccessProvider     MarketParticipantRole = "DDM"
	RoleSystemOperator         MarketParticipantRole = "EZ"
	RoleMeteringPointAdmin     MarketParticipantRole = "DDZ"
	RoleEnergySupplier         MarketParticipantRole = "DDQ"
	RoleBalanceResponsible     MarketParticipantRole = "DDK"
	RoleMeteredDataResponsible MarketParticipantRole = "MDR"
)

// ChargeIdentifier is the natural key of a charge.
type ChargeIdentifier struct {
	ChargeID      string
	ChargeOwnerID string
	ChargeType    ChargeType
}

func (id ChargeIdentifier) String() string {
	return id.ChargeOwnerID + "/" + string(id.ChargeType) + "/" + id.ChargeID
}

type MarketParticipantRef struct {
	ID   string
	Role MarketParticipantRole
}

// Document is the envelope of one market message.
type Document struct {
	ID                     string
	Type                   string
	BusinessReasonCode     string
	IndustryClassification string
	CreatedAt              time.Time
	Sender                 MarketParticipantRef
	Recipient              MarketParticipantRef
}

type Point struct {
	Position int
	Price    decimal.Decimal
	Time     time.Time
}

// ChargeOperation is one requested change carried by a document.
type ChargeOperation struct {
	OperationID          string
	MeteringPointID      string
	ChargeType           ChargeType
	ChargeID             string
	ChargeOwnerID        string
	Name                 string
	Description          string
	Resolution           Resolution
	TaxIndicator         bool
	TransparentInvoicing bool
	VatClassification    VatClassification
	StartTime            time.Time
	EndTime              *time.Time
	PriceResolution      Resolution
	SeriesStart          *time.Time
	SeriesEnd            *time.Time
	Points               []Point
}

func (o ChargeOperation) Identifier() ChargeIdentifier {
	return ChargeIdentifier{
		ChargeID:      o.ChargeID,
		ChargeOwnerID: o.ChargeOwnerID,
		ChargeType:    o.ChargeType,
	}
}

// IsStop reports whether the operation describes a zero-length validity window.
func (o ChargeOperation) IsStop() bool {
	return o.EndTime != nil && o.EndTime.Equal(o.StartTime)
}

// Period returns the validity period requested by the operation.
func (o ChargeOperation) Period() ChargePeriod {
	return ChargePeriod{
		Name:                 o.Name,
		Description:          o.Description,
		VatClassification:    o.VatClassification,
		TransparentInvoicing: o.TransparentInvoicing,
		StartTime:            o.StartTime,
		EndTime:              copyTime(o.EndTime),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
