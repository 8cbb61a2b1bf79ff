package votes

import (
	"readit/internal/models"
)

// Tally is the derived view of an item's votes for one request.
type Tally struct {
	Score      int `json:"voteScore"`
	ViewerVote int `json:"userVote"`
}

// Aggregate folds an item's votes into its net score and the viewer's own
// vote. A nil viewerID is an anonymous request and yields ViewerVote 0.
//
// votes must come from the ledger batch read: a nil slice means the votes were
// never loaded and returns ErrMissingVoteData instead of a zero score.
func Aggregate(votes []models.Vote, viewerID *uint) (Tally, error) {
	if votes == nil {
		return Tally{}, ErrMissingVoteData
	}

	var t Tally
	for _, v := range votes {
		t.Score += v.Value
	}

	if viewerID == nil {
		return t, nil
	}
	for _, v := range votes {
		if v.UserID == *viewerID {
			t.ViewerVote = v.Value
			break
		}
	}
	return t, nil
}
