package repository

import (
	"context"
	"strings"

	participantdomain "github.com/smallbiznis/chargeflow/internal/marketparticipant/domain"
	"github.com/smallbiznis/chargeflow/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[participantdomain.MarketParticipant]
}

func NewRepository(db *gorm.DB) participantdomain.Repository {
	return &repo{store: repository.ProvideStore[participantdomain.MarketParticipant](db)}
}

func (r *repo) FindByMarketParticipantID(ctx context.Context, marketParticipantID string) (*participantdomain.MarketParticipant, error) {
	id := strings.TrimSpace(marketParticipantID)
	if id == "" {
		return nil, nil
	}
	return r.store.FindOne(ctx, &participantdomain.MarketParticipant{MarketParticipantID: id})
}
