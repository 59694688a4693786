package outcome

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	bundledomain "github.com/smallbiznis/chargeflow/internal/bundle/domain"
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	outcomedomain "github.com/smallbiznis/chargeflow/internal/outcome/domain"
	"github.com/smallbiznis/chargeflow/internal/validation"
	"github.com/smallbiznis/chargeflow/pkg/db"
	"github.com/smallbiznis/chargeflow/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Emitter hands the partitioned result of a bundle to the market messaging layer.
type Emitter interface {
	Accept(ctx context.Context, doc chargedomain.Document, accepted []chargedomain.ChargeOperation) error
	Reject(ctx context.Context, doc chargedomain.Document, rejected []bundledomain.Rejection) error
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type outboxEmitter struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

// NewOutboxEmitter records outcomes as charge_outcome_events rows.
func NewOutboxEmitter(p Params) Emitter {
	return &outboxEmitter{
		db:    p.DB,
		log:   p.Log.Named("outcome.emitter"),
		genID: p.GenID,
	}
}

func (e *outboxEmitter) Accept(ctx context.Context, doc chargedomain.Document, accepted []chargedomain.ChargeOperation) error {
	if len(accepted) == 0 {
		return nil
	}
	ops := make([]outcomedomain.OperationPayload, 0, len(accepted))
	for _, op := range accepted {
		ops = append(ops, operationPayload(op, nil))
	}
	return e.write(ctx, doc, outcomedomain.EventTypeOperationsAccepted, ops)
}

func (e *outboxEmitter) Reject(ctx context.Context, doc chargedomain.Document, rejected []bundledomain.Rejection) error {
	if len(rejected) == 0 {
		return nil
	}
	ops := make([]outcomedomain.OperationPayload, 0, len(rejected))
	for _, r := range rejected {
		ops = append(ops, operationPayload(r.Operation, r.Rules))
	}
	return e.write(ctx, doc, outcomedomain.EventTypeOperationsRejected, ops)
}

func (e *outboxEmitter) write(ctx context.Context, doc chargedomain.Document, eventType string, ops []outcomedomain.OperationPayload) error {
	payload, err := json.Marshal(outcomedomain.Payload{
		DocumentID:         doc.ID,
		DocumentType:       doc.Type,
		BusinessReasonCode: doc.BusinessReasonCode,
		SenderID:           doc.Sender.ID,
		SenderRole:         string(doc.Sender.Role),
		Operations:         ops,
		Metadata:           correlation.Metadata(ctx),
	})
	if err != nil {
		return err
	}

	event := outcomedomain.OutcomeEvent{
		ID:            e.genID.Generate(),
		DocumentID:    doc.ID,
		EventType:     eventType,
		CorrelationID: correlation.ExtractCorrelationID(ctx),
		Recipient:     doc.Sender.ID,
		Payload:       datatypes.JSON(payload),
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.db.WithContext(ctx).Create(&event).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			e.log.Warn("outcome already recorded",
				zap.String("document_id", doc.ID),
				zap.String("event_type", eventType),
			)
			return nil
		}
		return err
	}

	e.log.Debug("outcome recorded",
		zap.String("document_id", doc.ID),
		zap.String("event_type", eventType),
		zap.Int("operations", len(ops)),
	)
	return nil
}

func operationPayload(op chargedomain.ChargeOperation, rules []validation.Rule) outcomedomain.OperationPayload {
	out := outcomedomain.OperationPayload{
		OperationID:   op.OperationID,
		ChargeID:      op.ChargeID,
		ChargeOwnerID: op.ChargeOwnerID,
		ChargeType:    string(op.ChargeType),
		StartDateTime: op.StartTime,
		EndDateTime:   op.EndTime,
	}
	for _, rule := range rules {
		out.Reasons = append(out.Reasons, outcomedomain.RuleReason{
			Rule:        string(rule.Identifier),
			TriggeredBy: rule.Params[validation.ParamTriggeredBy],
		})
	}
	return out
}
