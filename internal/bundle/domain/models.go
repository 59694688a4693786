package domain

import (
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/smallbiznis/chargeflow/internal/validation"
)

// Rejection is one rejected operation with the rules that rejected it.
// A cascaded rejection carries a single PreviousOperationsMustBeValid rule.
type Rejection struct {
	Operation chargedomain.ChargeOperation
	Rules     []validation.Rule
}

// Cascaded reports whether the operation was rejected because of an earlier sibling.
func (r Rejection) Cascaded() bool {
	return len(r.Rules) == 1 && r.Rules[0].IsCascaded()
}

// Outcome partitions the operations of one bundle. Both lists keep wire order.
type Outcome struct {
	Accepted []chargedomain.ChargeOperation
	Rejected []Rejection
}
