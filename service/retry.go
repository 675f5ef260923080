package service

import (
	"fmt"

	"fightbook/database"
	"fightbook/metrics"
)

// withConflictRetry runs fn, retrying a bounded number of times when it fails
// with a transient transaction conflict. After the attempts are exhausted the
// conflict is surfaced as ErrConcurrencyConflict, never silently dropped.
func withConflictRetry(attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !database.IsSerializationFailure(err) {
			return err
		}
		metrics.ConflictRetries.Inc()
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrConcurrencyConflict, attempts, err)
}
