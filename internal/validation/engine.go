package validation

import (
	"context"
	"fmt"

	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/smallbiznis/chargeflow/internal/clock"
	"github.com/smallbiznis/chargeflow/internal/config"
	participantdomain "github.com/smallbiznis/chargeflow/internal/marketparticipant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config       *config.ValidationConfigHolder
	Clock        clock.Clock
	Participants participantdomain.Repository
	Log          *zap.Logger
}

// Engine evaluates the rule sets produced by the RuleFactory.
// Every rule in a set is evaluated; all invalid ones are reported.
type Engine struct {
	factory      *RuleFactory
	config       *config.ValidationConfigHolder
	clock        clock.Clock
	participants participantdomain.Repository
	log          *zap.Logger
}

func NewEngine(p Params) *Engine {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		factory:      NewRuleFactory(),
		config:       p.Config,
		clock:        p.Clock,
		participants: p.Participants,
		log:          log.Named("validation.engine"),
	}
}

// ValidateInput runs the I/O free rules for the operation.
func (e *Engine) ValidateInput(doc chargedomain.Document, op chargedomain.ChargeOperation, opType chargedomain.OperationType) (Result, error) {
	key, err := e.factory.key(opType, op.ChargeType)
	if err != nil {
		return Result{}, err
	}

	target := InputTarget{
		Document:  doc,
		Operation: op,
		Config:    e.config.Get(),
		Now:       e.clock.Now(),
	}
	rules := make([]Rule, 0, len(e.factory.input[key]))
	for _, r := range e.factory.input[key] {
		rules = append(rules, r.evaluate(target))
	}
	return collect(rules)
}

// ValidateBusiness runs the rules that depend on stored state. It never writes.
func (e *Engine) ValidateBusiness(ctx context.Context, doc chargedomain.Document, op chargedomain.ChargeOperation, opType chargedomain.OperationType, existing *chargedomain.Charge) (Result, error) {
	key, err := e.factory.key(opType, op.ChargeType)
	if err != nil {
		return Result{}, err
	}
	if opType != chargedomain.OperationTypeCreate && existing == nil {
		return Result{}, fmt.Errorf("%w: %s operation %s without stored charge", ErrInvariantViolation, opType, op.OperationID)
	}

	target := BusinessTarget{
		Document:     doc,
		Operation:    op,
		Existing:     existing,
		Participants: e.participants,
	}
	rules := make([]Rule, 0, len(e.factory.business[key]))
	for _, r := range e.factory.business[key] {
		rule, err := r.evaluate(ctx, target)
		if err != nil {
			e.log.Error("business rule evaluation failed",
				zap.String("rule", string(r.id)),
				zap.String("operation_id", op.OperationID),
				zap.Error(err),
			)
			return Result{}, err
		}
		rules = append(rules, rule)
	}
	return collect(rules)
}
