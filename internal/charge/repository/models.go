package repository

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ChargeRow is the persisted charge root.
type ChargeRow struct {
	ID                     snowflake.ID `gorm:"primaryKey"`
	SenderProvidedChargeID string       `gorm:"column:sender_provided_charge_id;type:text;not null;uniqueIndex:ux_charges_identifier,priority:1"`
	OwnerID                string       `gorm:"column:owner_id;type:text;not null;uniqueIndex:ux_charges_identifier,priority:2"`
	Type                   string       `gorm:"column:type;type:text;not null;uniqueIndex:ux_charges_identifier,priority:3"`
	Resolution             string       `gorm:"type:text;not null"`
	TaxIndicator           bool         `gorm:"not null;default:false"`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ChargeRow) TableName() string { return "charges" }

type ChargePeriodRow struct {
	ID                   snowflake.ID `gorm:"primaryKey"`
	ChargeID             snowflake.ID `gorm:"column:charge_id;not null;index"`
	Name                 string       `gorm:"type:text;not null"`
	Description          string       `gorm:"type:text;not null"`
	VatClassification    string       `gorm:"column:vat_classification;type:text;not null"`
	TransparentInvoicing bool         `gorm:"not null;default:false"`
	StartDateTime        time.Time    `gorm:"column:start_date_time;not null"`
	EndDateTime          *time.Time   `gorm:"column:end_date_time"`
}

func (ChargePeriodRow) TableName() string { return "charge_periods" }

type ChargePointRow struct {
	ID       snowflake.ID    `gorm:"primaryKey"`
	ChargeID snowflake.ID    `gorm:"column:charge_id;not null;index"`
	Position int             `gorm:"not null"`
	Price    decimal.Decimal `gorm:"type:numeric(14,6);not null"`
	Time     time.Time       `gorm:"column:time;not null"`
}

func (ChargePointRow) TableName() string { return "charge_points" }
