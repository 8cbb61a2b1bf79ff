package handlers

import (
	"context"
	"net/http"
	"time"

	"readit/internal/middleware"
	"readit/internal/models"
	"readit/internal/services"
	"readit/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const publishTimeout = 5 * time.Second

// RankScheduler queues a post for a hot rank refresh.
type RankScheduler interface {
	ScheduleUpdate(postID uint)
}

type VoteHandler struct {
	db        *gorm.DB
	votes     *votes.Service
	annotator *votes.Annotator
	ranking   RankScheduler
	publisher services.Publisher
	log       zerolog.Logger
}

func NewVoteHandler(db *gorm.DB, svc *votes.Service, annotator *votes.Annotator, ranking RankScheduler, publisher services.Publisher, log zerolog.Logger) *VoteHandler {
	return &VoteHandler{
		db:        db,
		votes:     svc,
		annotator: annotator,
		ranking:   ranking,
		publisher: publisher,
		log:       log,
	}
}

type voteRequest struct {
	ItemKind   models.ItemKind `json:"itemKind"`
	Identifier string          `json:"identifier"`
	Value      *int            `json:"value"`
}

type voteResponse struct {
	Identifier   string          `json:"identifier"`
	ItemKind     models.ItemKind `json:"itemKind"`
	AppliedValue int             `json:"appliedValue"`
	VoteScore    int             `json:"voteScore"`
	UserVote     int             `json:"userVote"`
}

// Cast handles POST /api/votes.
func (h *VoteHandler) Cast(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if req.Value == nil {
		respondVoteError(c, h.log, votes.ErrInvalidVoteValue)
		return
	}

	ctx := c.Request.Context()
	res, err := h.votes.CastVote(ctx, user.ID, req.ItemKind, req.Identifier, *req.Value)
	if err != nil {
		respondVoteError(c, h.log, err)
		return
	}

	item := votableFor(res.Item)
	tallies, err := h.annotator.Annotate(ctx, &user.ID, item)
	if err != nil {
		respondVoteError(c, h.log, err)
		return
	}
	tally := tallies[res.Item]

	if !res.NoOp {
		h.scheduleRank(ctx, res.Item)
		h.publish(services.NewVoteEvent(user.ID, res.Item, req.Identifier, res.AppliedValue, time.Now()))
	}

	c.JSON(http.StatusOK, voteResponse{
		Identifier:   req.Identifier,
		ItemKind:     res.Item.Kind,
		AppliedValue: res.AppliedValue,
		VoteScore:    tally.Score,
		UserVote:     tally.ViewerVote,
	})
}

func votableFor(key models.ItemKey) votes.Votable {
	if key.Kind == models.KindComment {
		return &models.Comment{ID: key.ID}
	}
	return &models.Post{ID: key.ID}
}

// scheduleRank re-ranks the post the vote landed on. Comment votes re-rank
// the parent post.
func (h *VoteHandler) scheduleRank(ctx context.Context, item models.ItemKey) {
	if h.ranking == nil {
		return
	}
	postID := item.ID
	if item.Kind == models.KindComment {
		var ids []uint
		err := h.db.WithContext(ctx).
			Model(&models.Comment{}).
			Where("id = ?", item.ID).
			Limit(1).
			Pluck("post_id", &ids).Error
		if err != nil || len(ids) == 0 {
			h.log.Warn().Err(err).Stringer("item", item).Msg("parent post lookup failed")
			return
		}
		postID = ids[0]
	}
	h.ranking.ScheduleUpdate(postID)
}

func (h *VoteHandler) publish(ev services.VoteEvent) {
	if h.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.publisher.Publish(ctx, ev); err != nil {
			h.log.Warn().Err(err).Str("key", ev.Key()).Msg("publish vote event")
		}
	}()
}
