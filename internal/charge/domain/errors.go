package domain

import "errors"

var (
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrInvalidStopDate      = errors.New("invalid_stop_date")
	ErrNoPeriods            = errors.New("charge_has_no_periods")
	ErrUpdateAfterStop      = errors.New("update_after_stop_date")
	ErrChargeNotStopped     = errors.New("charge_not_stopped")
	ErrChargeAlreadyExists  = errors.New("charge_already_exists")
	ErrUnknownOperationType = errors.New("unknown_operation_type")
	ErrNilCharge            = errors.New("nil_charge")
)
