package votes

import (
	"context"
	"errors"
	"fmt"

	"readit/internal/metrics"
	"readit/internal/models"

	"github.com/rs/zerolog"
)

// Annotator overlays score and the viewer's own vote onto listing results
// with one ledger batch read per call.
type Annotator struct {
	ledger Ledger
	log    zerolog.Logger
}

func NewAnnotator(ledger Ledger, log zerolog.Logger) *Annotator {
	return &Annotator{ledger: ledger, log: log}
}

// Annotate loads the votes of items in one batch and sets each item's tally.
// A nil viewerID never produces a viewer vote.
func (a *Annotator) Annotate(ctx context.Context, viewerID *uint, items ...Votable) (map[models.ItemKey]Tally, error) {
	if len(items) == 0 {
		return map[models.ItemKey]Tally{}, nil
	}

	keys := make([]models.ItemKey, len(items))
	for i, it := range items {
		keys[i] = it.VoteKey()
	}

	votesByItem, err := a.ledger.VotesForItems(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load votes: %w", err)
	}
	metrics.AnnotateBatchSize.Observe(float64(len(keys)))

	for _, it := range items {
		it.SetVotes(votesByItem[it.VoteKey()])
	}

	tallies, err := Apply(viewerID, items...)
	if errors.Is(err, ErrMissingVoteData) {
		a.log.Error().Err(err).Int("items", len(items)).Msg("ledger omitted requested items")
	}
	return tallies, err
}

// Apply computes tallies from votes already loaded onto items.
func Apply(viewerID *uint, items ...Votable) (map[models.ItemKey]Tally, error) {
	tallies := make(map[models.ItemKey]Tally, len(items))
	for _, it := range items {
		t, err := Aggregate(it.LoadedVotes(), viewerID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", it.VoteKey(), err)
		}
		it.SetTally(t.Score, t.ViewerVote)
		tallies[it.VoteKey()] = t
	}
	return tallies, nil
}

// Items adapts a slice of posts or comments for Annotate.
func Items[T Votable](xs []T) []Votable {
	out := make([]Votable, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
