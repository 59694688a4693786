package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	EventTypeOperationsAccepted = "charge.operations.accepted"
	EventTypeOperationsRejected = "charge.operations.rejected"
)

// OutcomeEvent is an outbox row picked up by the market messaging layer.
type OutcomeEvent struct {
	ID            snowflake.ID   `gorm:"primaryKey"`
	DocumentID    string         `gorm:"type:text;not null;uniqueIndex:ux_charge_outcome_event_dedupe,priority:1"`
	EventType     string         `gorm:"type:text;not null;uniqueIndex:ux_charge_outcome_event_dedupe,priority:2"`
	CorrelationID string         `gorm:"type:text"`
	Recipient     string         `gorm:"type:text;not null"`
	Payload       datatypes.JSON `gorm:"type:json;not null"`
	Published     bool           `gorm:"not null;default:false"`
	PublishedAt   *time.Time     `gorm:""`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OutcomeEvent) TableName() string { return "charge_outcome_events" }

type OperationPayload struct {
	OperationID   string       `json:"operation_id"`
	ChargeID      string       `json:"charge_id"`
	ChargeOwnerID string       `json:"charge_owner_id"`
	ChargeType    string       `json:"charge_type"`
	StartDateTime time.Time    `json:"start_date_time"`
	EndDateTime   *time.Time   `json:"end_date_time,omitempty"`
	Reasons       []RuleReason `json:"reasons,omitempty"`
}

type RuleReason struct {
	Rule        string `json:"rule"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// Payload is the JSON body of an OutcomeEvent.
type Payload struct {
	DocumentID         string             `json:"document_id"`
	DocumentType       string             `json:"document_type"`
	BusinessReasonCode string             `json:"business_reason_code"`
	SenderID           string             `json:"sender_id"`
	SenderRole         string             `json:"sender_role"`
	Operations         []OperationPayload `json:"operations"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
}
