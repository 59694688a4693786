package validation

import "errors"

var ErrInvariantViolation = errors.New("invariant_violation")

// Result is the outcome of evaluating one rule set. It is failed iff it holds invalid rules.
type Result struct {
	invalid []Rule
}

func SucceededResult() Result {
	return Result{}
}

// NewFailedResult builds a failed result. Every rule must be invalid.
func NewFailedResult(rules []Rule) (Result, error) {
	if len(rules) == 0 {
		return Result{}, ErrInvariantViolation
	}
	for _, rule := range rules {
		if rule.Valid {
			return Result{}, ErrInvariantViolation
		}
	}
	invalid := make([]Rule, len(rules))
	copy(invalid, rules)
	return Result{invalid: invalid}, nil
}

func (r Result) Success() bool {
	return len(r.invalid) == 0
}

func (r Result) InvalidRules() []Rule {
	out := make([]Rule, len(r.invalid))
	copy(out, r.invalid)
	return out
}

// collect keeps every invalid rule, in evaluation order.
func collect(rules []Rule) (Result, error) {
	invalid := make([]Rule, 0)
	for _, rule := range rules {
		if !rule.Valid {
			invalid = append(invalid, rule)
		}
	}
	if len(invalid) == 0 {
		return SucceededResult(), nil
	}
	return NewFailedResult(invalid)
}
