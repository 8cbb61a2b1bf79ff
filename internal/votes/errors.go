package votes

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// Client errors, never retried.
	ErrInvalidVoteValue = errors.New("vote value must be -1, 0 or 1")
	ErrInvalidItemKind  = errors.New("item kind must be post or comment")
	ErrItemNotFound     = errors.New("item not found")

	// Transient errors. Casting the same value again is always safe.
	ErrVoteConflict   = errors.New("vote conflict")
	ErrStorageTimeout = errors.New("vote storage timeout")

	// ErrMissingVoteData means an item reached the aggregator without its
	// votes having been batch-loaded. It is a caller bug.
	ErrMissingVoteData = errors.New("vote data not loaded")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// classify maps storage errors onto the transient vote errors.
func classify(err error) error {
	switch {
	case err == nil, IsTransient(err):
		return err
	case isUniqueViolation(err):
		return errors.Join(ErrVoteConflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrStorageTimeout, err)
	}
	return err
}

// IsTransient reports whether err may succeed if the whole operation is retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrVoteConflict) || errors.Is(err, ErrStorageTimeout)
}
