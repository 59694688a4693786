package domain

import (
	"context"

	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
)

// Service processes the operations of one parsed bundle in wire order.
// Validation failures are returned as data in Outcome; only infrastructure
// failures and invariant violations are returned as errors.
type Service interface {
	ProcessBundle(ctx context.Context, doc chargedomain.Document, operations []chargedomain.ChargeOperation) (Outcome, error)
}
