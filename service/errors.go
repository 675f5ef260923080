package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Placement failures are
// rejected before any mutation; ConcurrencyConflict is surfaced only after
// the bounded retries are exhausted.
var (
	ErrInvalidOdds             = errors.New("american odds cannot be zero")
	ErrInvalidStake            = errors.New("stake must be positive")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrPredictionWindowClosed  = errors.New("prediction window is closed")
	ErrAccountNotFound         = errors.New("account not found")
	ErrEventNotFound           = errors.New("event not found")
	ErrFightNotFound           = errors.New("fight not found")
	ErrUnresolvableWinner      = errors.New("winner name does not match either fighter")
	ErrConcurrencyConflict     = errors.New("concurrent modification conflict")
)

// IsValidation reports whether err is a pre-mutation validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidOdds) ||
		errors.Is(err, ErrInvalidStake) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrPredictionWindowClosed)
}

// IsNotFound reports whether err is an unknown account/event/fight.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrFightNotFound)
}

// ItemError records the failure of one wager inside a refund or settlement
// batch. The batch continues past it.
type ItemError struct {
	WagerID int64
	Err     error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("wager %d: %v", e.WagerID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// PartialBatchFailure reports that some wagers in a batch failed while the
// rest were processed. Never returned when every item succeeded.
type PartialBatchFailure struct {
	Items []*ItemError
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%d of batch items failed", len(e.Items))
}
