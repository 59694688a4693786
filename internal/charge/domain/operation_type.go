package domain

import "fmt"

// OperationType is the classified intent of one charge operation.
type OperationType string

var (
	OperationTypeUnknown    OperationType = "UNKNOWN"
	OperationTypeCreate     OperationType = "CREATE"
	OperationTypeUpdate     OperationType = "UPDATE"
	OperationTypeStop       OperationType = "STOP"
	OperationTypeCancelStop OperationType = "CANCEL_STOP"
)

// Classify decides what an operation does to the stored charge.
// The stop check precedes the cancel-stop check: a stop's start time may
// coincide with the end of the latest period.
func Classify(op ChargeOperation, existing *Charge) (OperationType, error) {
	if existing == nil {
		return OperationTypeCreate, nil
	}
	if op.IsStop() {
		return OperationTypeStop, nil
	}
	latest, ok := existing.LatestPeriod()
	if !ok {
		return OperationTypeUnknown, fmt.Errorf("%w: charge %s has no periods", ErrUnknownOperationType, existing.Identifier)
	}
	if latest.EndTime != nil && op.StartTime.Equal(*latest.EndTime) {
		return OperationTypeCancelStop, nil
	}
	return OperationTypeUpdate, nil
}
