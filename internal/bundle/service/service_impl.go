package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	bundledomain "github.com/smallbiznis/chargeflow/internal/bundle/domain"
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/smallbiznis/chargeflow/internal/document"
	obslogger "github.com/smallbiznis/chargeflow/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/chargeflow/internal/observability/metrics"
	"github.com/smallbiznis/chargeflow/internal/outcome"
	"github.com/smallbiznis/chargeflow/internal/validation"
	"github.com/smallbiznis/chargeflow/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	bundleResultProcessed = "processed"
	bundleResultFailed    = "failed"

	operationAccepted = "accepted"
	operationRejected = "rejected"
	operationCascaded = "cascaded"

	// cascaded operations are never classified
	operationTypeNone = "none"
)

type Params struct {
	fx.In

	Store   chargedomain.Store
	Engine  *validation.Engine
	Emitter outcome.Emitter
	GenID   *snowflake.Node
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	store   chargedomain.Store
	engine  *validation.Engine
	emitter outcome.Emitter
	genID   *snowflake.Node
	log     *zap.Logger
	metrics *obsmetrics.Metrics
	tracer  trace.Tracer
}

func NewService(p Params) bundledomain.Service {
	return &Service{
		store:   p.Store,
		engine:  p.Engine,
		emitter: p.Emitter,
		genID:   p.GenID,
		log:     p.Log.Named("bundle.service"),
		metrics: p.Metrics,
		tracer:  otel.Tracer("chargeflow/bundle"),
	}
}

// ProcessBundle walks the operations strictly in order. The first rejected
// operation poisons the rest of the bundle: every later operation is rejected
// with PreviousOperationsMustBeValid referencing it.
//
// A Create is flushed as soon as it is applied so later operations on the same
// charge observe it. All other mutations are flushed once after the walk.
func (s *Service) ProcessBundle(ctx context.Context, doc chargedomain.Document, operations []chargedomain.ChargeOperation) (bundledomain.Outcome, error) {
	started := time.Now()
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	ctx, span := s.tracer.Start(ctx, "bundle.process", trace.WithAttributes(
		attribute.String("document_id", doc.ID),
		attribute.Int("operations", len(operations)),
	))
	defer span.End()

	log := obslogger.WithDocument(obslogger.WithContext(ctx, s.log), doc.ID)

	result, err := s.process(ctx, log, doc, operations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordBundle(ctx, bundleResultFailed, time.Since(started))
		log.Error("bundle processing failed", zap.Error(err))
		return bundledomain.Outcome{}, err
	}

	span.SetAttributes(
		attribute.Int("accepted", len(result.Accepted)),
		attribute.Int("rejected", len(result.Rejected)),
	)
	s.metrics.RecordBundle(ctx, bundleResultProcessed, time.Since(started))
	log.Info("bundle processed",
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (s *Service) process(ctx context.Context, log *zap.Logger, doc chargedomain.Document, operations []chargedomain.ChargeOperation) (bundledomain.Outcome, error) {
	if len(operations) == 0 {
		return bundledomain.Outcome{}, document.ErrEmptyBundle
	}

	repo := s.store.Begin()
	result := bundledomain.Outcome{
		Accepted: make([]chargedomain.ChargeOperation, 0, len(operations)),
		Rejected: make([]bundledomain.Rejection, 0),
	}

	poisoned := false
	failedOperationID := ""
	for i := 0; i < len(operations); i++ {
		op := operations[i]

		if poisoned {
			result.Rejected = append(result.Rejected, bundledomain.Rejection{
				Operation: op,
				Rules:     []validation.Rule{validation.Cascaded(op.OperationID, failedOperationID)},
			})
			s.metrics.RecordOperation(ctx, operationCascaded, operationTypeNone)
			continue
		}

		opType, invalid, err := s.processOperation(ctx, repo, doc, op)
		if err != nil {
			return bundledomain.Outcome{}, fmt.Errorf("operation %s: %w", op.OperationID, err)
		}
		if len(invalid) > 0 {
			poisoned = true
			failedOperationID = op.OperationID
			result.Rejected = append(result.Rejected, bundledomain.Rejection{Operation: op, Rules: invalid})
			s.metrics.RecordOperation(ctx, operationRejected, string(opType))
			for _, rule := range invalid {
				s.metrics.RecordRuleViolation(ctx, string(rule.Identifier))
			}
			log.Info("operation rejected",
				zap.String("operation_id", op.OperationID),
				zap.String("operation_type", string(opType)),
				zap.Strings("rules", ruleNames(invalid)),
				zap.Int("cascaded", len(operations)-i-1),
			)
			continue
		}

		result.Accepted = append(result.Accepted, op)
		s.metrics.RecordOperation(ctx, operationAccepted, string(opType))
		log.Debug("operation accepted",
			zap.String("operation_id", op.OperationID),
			zap.String("operation_type", string(opType)),
			zap.String("charge", op.Identifier().String()),
		)
	}

	if err := repo.SaveChanges(ctx); err != nil {
		return bundledomain.Outcome{}, fmt.Errorf("save charges: %w", err)
	}

	if err := s.emitter.Accept(ctx, doc, result.Accepted); err != nil {
		return bundledomain.Outcome{}, fmt.Errorf("emit accepted: %w", err)
	}
	if err := s.emitter.Reject(ctx, doc, result.Rejected); err != nil {
		return bundledomain.Outcome{}, fmt.Errorf("emit rejected: %w", err)
	}
	return result, nil
}

// processOperation returns the invalid rules when the operation is rejected.
func (s *Service) processOperation(ctx context.Context, repo chargedomain.Repository, doc chargedomain.Document, op chargedomain.ChargeOperation) (chargedomain.OperationType, []validation.Rule, error) {
	existing, err := repo.GetCharge(ctx, op.Identifier())
	if err != nil {
		return chargedomain.OperationTypeUnknown, nil, err
	}

	opType, err := chargedomain.Classify(op, existing)
	if err != nil {
		return opType, nil, err
	}

	input, err := s.engine.ValidateInput(doc, op, opType)
	if err != nil {
		return opType, nil, err
	}
	if !input.Success() {
		return opType, input.InvalidRules(), nil
	}

	business, err := s.engine.ValidateBusiness(ctx, doc, op, opType, existing)
	if err != nil {
		return opType, nil, err
	}
	if !business.Success() {
		return opType, business.InvalidRules(), nil
	}

	if err := s.apply(ctx, repo, opType, op, existing); err != nil {
		return opType, nil, err
	}
	return opType, nil, nil
}

func (s *Service) apply(ctx context.Context, repo chargedomain.Repository, opType chargedomain.OperationType, op chargedomain.ChargeOperation, existing *chargedomain.Charge) error {
	switch opType {
	case chargedomain.OperationTypeCreate:
		charge, err := chargedomain.NewCharge(s.genID.Generate(), op)
		if err != nil {
			return refused(opType, err)
		}
		if err := repo.AddCharge(ctx, charge); err != nil {
			return err
		}
		return repo.SaveChanges(ctx)
	case chargedomain.OperationTypeUpdate:
		return refused(opType, existing.Update(op))
	case chargedomain.OperationTypeStop:
		return refused(opType, existing.Stop(op.StartTime))
	case chargedomain.OperationTypeCancelStop:
		return refused(opType, existing.CancelStop(op))
	default:
		return fmt.Errorf("%w: %s", chargedomain.ErrUnknownOperationType, opType)
	}
}

// refused reports an operation that passed validation but that the aggregate rejects.
func refused(opType chargedomain.OperationType, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: apply %s: %v", validation.ErrInvariantViolation, opType, err)
}

func ruleNames(rules []validation.Rule) []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, string(r.Identifier))
	}
	return names
}
