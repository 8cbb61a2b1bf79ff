package votes

import (
	"testing"

	"readit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vote(voter uint, value int) models.Vote {
	return models.Vote{UserID: voter, ItemKind: models.KindPost, ItemID: 1, Value: value}
}

func uintPtr(v uint) *uint {
	return &v
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		votes  []models.Vote
		viewer *uint
		want   Tally
	}{
		{"empty", []models.Vote{}, nil, Tally{}},
		{"empty with viewer", []models.Vote{}, uintPtr(1), Tally{}},
		{"sum", []models.Vote{vote(1, 1), vote(2, 1), vote(3, -1)}, nil, Tally{Score: 1}},
		{"retracted vote counts zero", []models.Vote{vote(1, 0), vote(2, -1)}, uintPtr(1), Tally{Score: -1, ViewerVote: 0}},
		{"viewer upvoted", []models.Vote{vote(1, 1), vote(2, -1)}, uintPtr(1), Tally{Score: 0, ViewerVote: 1}},
		{"viewer downvoted", []models.Vote{vote(1, 1), vote(2, -1)}, uintPtr(2), Tally{Score: 0, ViewerVote: -1}},
		{"viewer did not vote", []models.Vote{vote(1, 1)}, uintPtr(9), Tally{Score: 1}},
		{"anonymous never overlays", []models.Vote{vote(1, 1)}, nil, Tally{Score: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.votes, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateFirstMatchWins(t *testing.T) {
	got, err := Aggregate([]models.Vote{vote(1, -1), vote(1, 1)}, uintPtr(1))
	require.NoError(t, err)
	assert.Equal(t, -1, got.ViewerVote)
}

func TestAggregateMissingVoteData(t *testing.T) {
	_, err := Aggregate(nil, uintPtr(1))
	assert.ErrorIs(t, err, ErrMissingVoteData)
}

func TestApplyReportsItemWithoutVotes(t *testing.T) {
	loaded := &models.Post{ID: 1, Votes: []models.Vote{vote(1, 1)}}
	unloaded := &models.Post{ID: 2}

	_, err := Apply(nil, loaded, unloaded)
	require.ErrorIs(t, err, ErrMissingVoteData)
	assert.Contains(t, err.Error(), "post:2")
}
