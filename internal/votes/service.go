package votes

import (
	"context"
	"errors"
	"time"

	"readit/internal/metrics"
	"readit/internal/models"

	"github.com/rs/zerolog"
)

// maxAttempts bounds CastVote to the first try plus one retry on a
// transient storage error.
const maxAttempts = 2

// CastResult is the outcome of a vote cast.
type CastResult struct {
	Item         models.ItemKey
	AppliedValue int
	// NoOp is set when a retraction hit an item the voter never voted on;
	// nothing was written.
	NoOp bool
}

// Service casts, changes and retracts votes. It is the only writer of the
// ledger. Scores are never stored here; they are derived on read.
type Service struct {
	ledger  Ledger
	items   ItemResolver
	timeout time.Duration
	log     zerolog.Logger
}

// NewService returns a Service whose storage calls are bounded by timeout per
// attempt. A zero timeout leaves deadlines to the caller's context.
func NewService(ledger Ledger, items ItemResolver, timeout time.Duration, log zerolog.Logger) *Service {
	return &Service{ledger: ledger, items: items, timeout: timeout, log: log}
}

// CastVote records voterID's vote on the item. value 1 and -1 are up and down
// votes, 0 retracts. Casting the same value twice leaves the ledger unchanged.
func (s *Service) CastVote(ctx context.Context, voterID uint, kind models.ItemKind, identifier string, value int) (CastResult, error) {
	if !validValue(value) {
		metrics.VotesCast.WithLabelValues(string(kind), "invalid").Inc()
		return CastResult{}, ErrInvalidVoteValue
	}
	if !kind.Valid() {
		metrics.VotesCast.WithLabelValues("unknown", "invalid").Inc()
		return CastResult{}, ErrInvalidItemKind
	}

	var (
		res CastResult
		err error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err = s.attempt(ctx, voterID, kind, identifier, value)
		if err == nil || !IsTransient(err) || ctx.Err() != nil || attempt == maxAttempts {
			break
		}

		reason := "timeout"
		if errors.Is(err, ErrVoteConflict) {
			reason = "conflict"
		}
		metrics.VoteRetries.WithLabelValues(reason).Inc()
		s.log.Warn().Err(err).
			Uint("voter_id", voterID).
			Str("kind", string(kind)).
			Str("identifier", identifier).
			Str("reason", reason).
			Msg("retrying vote cast")
	}

	metrics.VotesCast.WithLabelValues(string(kind), outcome(res, err)).Inc()
	if err != nil {
		return CastResult{}, err
	}
	return res, nil
}

func (s *Service) attempt(ctx context.Context, voterID uint, kind models.ItemKind, identifier string, value int) (CastResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	item, err := s.items.Resolve(ctx, kind, identifier)
	if err != nil {
		return CastResult{}, classify(err)
	}

	existing, err := s.ledger.FindVote(ctx, voterID, item)
	if err != nil {
		return CastResult{}, classify(err)
	}
	if existing == nil && value == 0 {
		return CastResult{Item: item, AppliedValue: 0, NoOp: true}, nil
	}

	vote, err := s.ledger.UpsertVote(ctx, voterID, item, value)
	if err != nil {
		return CastResult{}, classify(err)
	}
	return CastResult{Item: item, AppliedValue: vote.Value}, nil
}

func outcome(res CastResult, err error) string {
	switch {
	case err == nil && res.NoOp:
		return "noop"
	case err == nil:
		return "applied"
	case errors.Is(err, ErrItemNotFound):
		return "not_found"
	case errors.Is(err, ErrVoteConflict):
		return "conflict"
	case errors.Is(err, ErrStorageTimeout):
		return "timeout"
	}
	return "error"
}
