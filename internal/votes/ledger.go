package votes

import (
	"context"

	"readit/internal/models"
)

// Ledger is the authoritative store of individual votes, one row per
// (voter, item) pair.
type Ledger interface {
	// FindVote returns the voter's vote on item, or nil if there is none.
	FindVote(ctx context.Context, voterID uint, item models.ItemKey) (*models.Vote, error)

	// UpsertVote is the only write path. Concurrent calls for the same
	// (voter, item) pair leave exactly one row; the last commit wins.
	UpsertVote(ctx context.Context, voterID uint, item models.ItemKey, value int) (models.Vote, error)

	// VotesForItems returns the votes of every requested item in a single
	// round trip per backing-store batch. Every requested key is present in
	// the result; items without votes map to an empty, non-nil slice.
	VotesForItems(ctx context.Context, items []models.ItemKey) (map[models.ItemKey][]models.Vote, error)
}

// Votable is a post or comment that can carry its loaded votes and the
// derived tally.
type Votable interface {
	VoteKey() models.ItemKey
	SetVotes(votes []models.Vote)
	LoadedVotes() []models.Vote
	SetTally(score, viewerVote int)
}

func validValue(v int) bool {
	return v >= -1 && v <= 1
}

func uniqueKeys(items []models.ItemKey) []models.ItemKey {
	seen := make(map[models.ItemKey]struct{}, len(items))
	out := make([]models.ItemKey, 0, len(items))
	for _, k := range items {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
