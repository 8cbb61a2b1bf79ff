package handlers

import (
	"errors"
	"net/http"

	"readit/internal/middleware"
	"readit/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const pageSize = 30

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

// respondFieldErrors reports input validation failures keyed by field.
func respondFieldErrors(c *gin.Context, errs map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": errs})
}

// voteErrorStatus maps a vote error onto its HTTP status and error code.
// Transient failures ask the client to retry.
func voteErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, votes.ErrInvalidVoteValue):
		return http.StatusBadRequest, "invalid_vote_value"
	case errors.Is(err, votes.ErrInvalidItemKind):
		return http.StatusBadRequest, "invalid_item_kind"
	case errors.Is(err, votes.ErrItemNotFound):
		return http.StatusNotFound, "item_not_found"
	case errors.Is(err, votes.ErrVoteConflict):
		return http.StatusServiceUnavailable, "vote_conflict"
	case errors.Is(err, votes.ErrStorageTimeout):
		return http.StatusServiceUnavailable, "storage_timeout"
	}
	return http.StatusInternalServerError, "internal"
}

func respondVoteError(c *gin.Context, log zerolog.Logger, err error) {
	status, code := voteErrorStatus(err)
	message := err.Error()
	switch {
	case status == http.StatusServiceUnavailable:
		c.Header("Retry-After", "1")
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("vote request failed")
		message = "internal server error"
	}
	respondError(c, status, code, message)
}

func respondInternal(c *gin.Context, log zerolog.Logger, err error, what string) {
	log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg(what)
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, "internal", "internal server error")
}
