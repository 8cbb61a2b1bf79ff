package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"readit/internal/models"
	"readit/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVoteEndpoint(t *testing.T) {
	e := newEnv(t)

	w := e.vote(e.alice, models.KindPost, e.post.Identifier, 1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{
		"identifier": %q,
		"itemKind": "post",
		"appliedValue": 1,
		"voteScore": 1,
		"userVote": 1
	}`, e.post.Identifier), w.Body.String())

	w = e.vote(e.bob, models.KindPost, e.post.Identifier, -1)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[voteResponse](t, w)
	assert.Equal(t, 0, res.VoteScore)
	assert.Equal(t, -1, res.UserVote)

	assert.Equal(t, []uint{e.post.ID, e.post.ID}, e.ranks.scheduled())
	assert.Eventually(t, func() bool { return len(e.events.published()) == 2 }, time.Second, 5*time.Millisecond)

	ev := e.events.published()
	keys := []string{ev[0].Key(), ev[1].Key()}
	assert.Equal(t, []string{"post:" + fmt.Sprint(e.post.ID), "post:" + fmt.Sprint(e.post.ID)}, keys)
}

func TestCastVoteOnCommentRanksParent(t *testing.T) {
	e := newEnv(t)

	w := e.vote(e.alice, models.KindComment, e.comment.Identifier, -1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[voteResponse](t, w)
	assert.Equal(t, models.KindComment, res.ItemKind)
	assert.Equal(t, -1, res.VoteScore)

	assert.Equal(t, []uint{e.post.ID}, e.ranks.scheduled())
}

func TestCastVoteNoOpRetraction(t *testing.T) {
	e := newEnv(t)

	w := e.vote(e.alice, models.KindPost, e.post.Identifier, 0)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[voteResponse](t, w)
	assert.Equal(t, 0, res.AppliedValue)
	assert.Equal(t, 0, res.VoteScore)

	assert.Empty(t, e.ranks.scheduled())
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, e.events.published())

	var n int64
	require.NoError(t, e.db.Model(&models.Vote{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCastVoteErrors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		user   *models.User
		body   any
		status int
		code   string
	}{
		{"anonymous", nil, gin.H{"itemKind": "post", "identifier": e.post.Identifier, "value": 1}, http.StatusUnauthorized, "unauthenticated"},
		{"value out of range", e.alice, gin.H{"itemKind": "post", "identifier": e.post.Identifier, "value": 2}, http.StatusBadRequest, "invalid_vote_value"},
		{"value missing", e.alice, gin.H{"itemKind": "post", "identifier": e.post.Identifier}, http.StatusBadRequest, "invalid_vote_value"},
		{"unknown kind", e.alice, gin.H{"itemKind": "sub", "identifier": e.post.Identifier, "value": 1}, http.StatusBadRequest, "invalid_item_kind"},
		{"unknown item", e.alice, gin.H{"itemKind": "post", "identifier": "nope", "value": 1}, http.StatusNotFound, "item_not_found"},
		{"not json", e.alice, "value=1", http.StatusBadRequest, "invalid_body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/votes", tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code)
			body := decode[map[string]any](t, w)
			assert.Equal(t, tt.code, body["error"])
		})
	}
	assert.Empty(t, e.ranks.scheduled())
}

func TestVoteErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{votes.ErrInvalidVoteValue, http.StatusBadRequest, "invalid_vote_value"},
		{votes.ErrInvalidItemKind, http.StatusBadRequest, "invalid_item_kind"},
		{votes.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
		{errors.Join(votes.ErrVoteConflict, errors.New("23505")), http.StatusServiceUnavailable, "vote_conflict"},
		{fmt.Errorf("find: %w", votes.ErrStorageTimeout), http.StatusServiceUnavailable, "storage_timeout"},
		{fmt.Errorf("post:1: %w", votes.ErrMissingVoteData), http.StatusInternalServerError, "internal"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, code := voteErrorStatus(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestRespondVoteErrorRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondVoteError(c, zerolog.Nop(), votes.ErrVoteConflict)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondVoteError(c, zerolog.Nop(), votes.ErrMissingVoteData)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"internal","message":"internal server error"}`, w.Body.String())
}
