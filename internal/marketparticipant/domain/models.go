package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MarketParticipant is a registered actor allowed to submit charge documents.
type MarketParticipant struct {
	ID                  snowflake.ID `gorm:"primaryKey"`
	MarketParticipantID string       `gorm:"column:market_participant_id;type:text;not null;uniqueIndex"`
	BusinessProcessRole string       `gorm:"column:business_process_role;type:text;not null"`
	IsActive            bool         `gorm:"not null;default:true"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MarketParticipant) TableName() string { return "market_participants" }

type Repository interface {
	FindByMarketParticipantID(ctx context.Context, marketParticipantID string) (*MarketParticipant, error)
}
