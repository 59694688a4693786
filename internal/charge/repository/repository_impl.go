package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/smallbiznis/chargeflow/pkg/db"
	"github.com/smallbiznis/chargeflow/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type store struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewStore(p Params) chargedomain.Store {
	return &store{
		db:    p.DB,
		log:   p.Log.Named("charge.repository"),
		genID: p.GenID,
	}
}

func (s *store) Begin() chargedomain.Repository {
	return &session{
		store:   s,
		tracked: make(map[chargedomain.ChargeIdentifier]*chargedomain.Charge),
		added:   make(map[chargedomain.ChargeIdentifier]bool),
	}
}

// session is an identity map over the charges touched by one bundle.
type session struct {
	store   *store
	tracked map[chargedomain.ChargeIdentifier]*chargedomain.Charge
	added   map[chargedomain.ChargeIdentifier]bool
	order   []chargedomain.ChargeIdentifier
}

func (s *session) GetCharge(ctx context.Context, id chargedomain.ChargeIdentifier) (*chargedomain.Charge, error) {
	if charge, ok := s.tracked[id]; ok {
		return charge, nil
	}

	charge, err := s.load(ctx, s.store.db, id)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, nil
	}
	s.track(id, charge)
	return charge, nil
}

func (s *session) AddCharge(ctx context.Context, charge *chargedomain.Charge) error {
	if charge == nil {
		return chargedomain.ErrNilCharge
	}
	if _, ok := s.tracked[charge.Identifier]; ok {
		return chargedomain.ErrChargeAlreadyExists
	}
	s.track(charge.Identifier, charge)
	s.added[charge.Identifier] = true
	return nil
}

func (s *session) SaveChanges(ctx context.Context) error {
	pending := make([]*chargedomain.Charge, 0, len(s.order))
	for _, id := range s.order {
		if charge := s.tracked[id]; charge.Dirty() {
			pending = append(pending, charge)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	err := s.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, charge := range pending {
			if s.added[charge.Identifier] {
				if err := s.insert(ctx, tx, charge, now); err != nil {
					return err
				}
				continue
			}
			if err := s.replace(ctx, tx, charge, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return fmt.Errorf("%w: %v", chargedomain.ErrChargeAlreadyExists, err)
		}
		return err
	}

	for _, charge := range pending {
		charge.MarkClean()
		delete(s.added, charge.Identifier)
	}
	s.store.log.Debug("charges saved", zap.Int("count", len(pending)))
	return nil
}

func (s *session) track(id chargedomain.ChargeIdentifier, charge *chargedomain.Charge) {
	s.tracked[id] = charge
	s.order = append(s.order, id)
}

func (s *session) load(ctx context.Context, conn *gorm.DB, id chargedomain.ChargeIdentifier) (*chargedomain.Charge, error) {
	var row ChargeRow
	err := conn.WithContext(ctx).Raw(
		`SELECT id, sender_provided_charge_id, owner_id, type, resolution, tax_indicator, created_at, updated_at
		 FROM charges
		 WHERE sender_provided_charge_id = ? AND owner_id = ? AND type = ?`,
		id.ChargeID,
		id.ChargeOwnerID,
		string(id.ChargeType),
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}

	periodRows, err := repository.ProvideStore[ChargePeriodRow](conn).Find(ctx, &ChargePeriodRow{ChargeID: row.ID}, repository.WithOrder("start_date_time ASC"))
	if err != nil {
		return nil, err
	}
	pointRows, err := repository.ProvideStore[ChargePointRow](conn).Find(ctx, &ChargePointRow{ChargeID: row.ID}, repository.WithOrder("time ASC"))
	if err != nil {
		return nil, err
	}

	periods := make([]chargedomain.ChargePeriod, 0, len(periodRows))
	for _, p := range periodRows {
		periods = append(periods, chargedomain.ChargePeriod{
			Name:                 p.Name,
			Description:          p.Description,
			VatClassification:    chargedomain.VatClassification(p.VatClassification),
			TransparentInvoicing: p.TransparentInvoicing,
			StartTime:            p.StartDateTime.UTC(),
			EndTime:              utcPtr(p.EndDateTime),
		})
	}
	points := make([]chargedomain.Point, 0, len(pointRows))
	for _, p := range pointRows {
		points = append(points, chargedomain.Point{
			Position: p.Position,
			Price:    p.Price,
			Time:     p.Time.UTC(),
		})
	}

	return chargedomain.RestoreCharge(
		row.ID,
		chargedomain.ChargeIdentifier{
			ChargeID:      row.SenderProvidedChargeID,
			ChargeOwnerID: row.OwnerID,
			ChargeType:    chargedomain.ChargeType(row.Type),
		},
		chargedomain.Resolution(row.Resolution),
		row.TaxIndicator,
		periods,
		points,
	), nil
}

func (s *session) insert(ctx context.Context, tx *gorm.DB, charge *chargedomain.Charge, now time.Time) error {
	row := &ChargeRow{
		ID:                     charge.ID,
		SenderProvidedChargeID: charge.Identifier.ChargeID,
		OwnerID:                charge.Identifier.ChargeOwnerID,
		Type:                   string(charge.Identifier.ChargeType),
		Resolution:             string(charge.Resolution),
		TaxIndicator:           charge.TaxIndicator,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := repository.ProvideStore[ChargeRow](tx).Create(ctx, row); err != nil {
		return err
	}
	return s.insertChildren(ctx, tx, charge)
}

func (s *session) replace(ctx context.Context, tx *gorm.DB, charge *chargedomain.Charge, now time.Time) error {
	err := tx.WithContext(ctx).Exec(
		`UPDATE charges SET resolution = ?, tax_indicator = ?, updated_at = ? WHERE id = ?`,
		string(charge.Resolution),
		charge.TaxIndicator,
		now,
		charge.ID,
	).Error
	if err != nil {
		return err
	}
	if err := repository.ProvideStore[ChargePeriodRow](tx).DeleteWhere(ctx, &ChargePeriodRow{ChargeID: charge.ID}); err != nil {
		return err
	}
	if err := repository.ProvideStore[ChargePointRow](tx).DeleteWhere(ctx, &ChargePointRow{ChargeID: charge.ID}); err != nil {
		return err
	}
	return s.insertChildren(ctx, tx, charge)
}

func (s *session) insertChildren(ctx context.Context, tx *gorm.DB, charge *chargedomain.Charge) error {
	periods := charge.Periods()
	periodRows := make([]*ChargePeriodRow, 0, len(periods))
	for _, p := range periods {
		periodRows = append(periodRows, &ChargePeriodRow{
			ID:                   s.store.genID.Generate(),
			ChargeID:             charge.ID,
			Name:                 p.Name,
			Description:          p.Description,
			VatClassification:    string(p.VatClassification),
			TransparentInvoicing: p.TransparentInvoicing,
			StartDateTime:        p.StartTime,
			EndDateTime:          p.EndTime,
		})
	}
	if err := repository.ProvideStore[ChargePeriodRow](tx).BatchCreate(ctx, periodRows); err != nil {
		return err
	}

	points := charge.Points()
	pointRows := make([]*ChargePointRow, 0, len(points))
	for _, p := range points {
		pointRows = append(pointRows, &ChargePointRow{
			ID:       s.store.genID.Generate(),
			ChargeID: charge.ID,
			Position: p.Position,
			Price:    p.Price,
			Time:     p.Time,
		})
	}
	return repository.ProvideStore[ChargePointRow](tx).BatchCreate(ctx, pointRows)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
