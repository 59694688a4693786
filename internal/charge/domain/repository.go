package domain

import "context"

// Repository is one unit of work over charges. AddCharge stages a new charge;
// SaveChanges flushes staged and mutated charges and may be called more than once.
type Repository interface {
	GetCharge(ctx context.Context, id ChargeIdentifier) (*Charge, error)
	AddCharge(ctx context.Context, charge *Charge) error
	SaveChanges(ctx context.Context) error
}

// Store opens a repository session scoped to one bundle.
type Store interface {
	Begin() Repository
}
