package service

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestWithConflictRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0

	err := withConflictRetry(3, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithConflictRetry_RetriesSerializationFailures(t *testing.T) {
	calls := 0

	err := withConflictRetry(3, func() error {
		calls++
		if calls < 3 {
			return serializationFailure()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithConflictRetry_SurfacesConflictAfterExhaustion(t *testing.T) {
	calls := 0

	err := withConflictRetry(3, func() error {
		calls++
		return serializationFailure()
	})

	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 3, calls)
}

func TestWithConflictRetry_OtherErrorsNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("constraint violation")

	err := withConflictRetry(3, func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithConflictRetry_DeadlockRetried(t *testing.T) {
	calls := 0

	err := withConflictRetry(2, func() error {
		calls++
		return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	})

	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 2, calls)
}
