package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"readit/internal/middleware"
	"readit/internal/models"
	"readit/internal/utils"
	"readit/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type SubHandler struct {
	db        *gorm.DB
	annotator *votes.Annotator
	cache     *utils.Cache[models.Sub]
	log       zerolog.Logger
}

func NewSubHandler(db *gorm.DB, annotator *votes.Annotator, cache *utils.Cache[models.Sub], log zerolog.Logger) *SubHandler {
	return &SubHandler{db: db, annotator: annotator, cache: cache, log: log}
}

func findSub(ctx context.Context, db *gorm.DB, name string) (*models.Sub, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errNotFound
	}
	var subs []models.Sub
	if err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).Limit(1).Find(&subs).Error; err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, errNotFound
	}
	return &subs[0], nil
}

func (h *SubHandler) lookup(ctx context.Context, name string) (*models.Sub, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if h.cache != nil {
		if sub, ok := h.cache.Get(key); ok {
			return &sub, nil
		}
	}
	sub, err := findSub(ctx, h.db, name)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.Set(key, *sub)
	}
	return sub, nil
}

type createSubRequest struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create handles POST /api/subs.
func (h *SubHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createSubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	name := strings.TrimSpace(req.Name)
	title := strings.TrimSpace(req.Title)

	ctx := c.Request.Context()
	errs := map[string]string{}
	if name == "" {
		errs["name"] = "Name must not be empty"
	}
	if title == "" {
		errs["title"] = "Title must not be empty"
	}
	if name != "" {
		_, err := findSub(ctx, h.db, name)
		switch {
		case err == nil:
			errs["name"] = "Sub exists already"
		case !errors.Is(err, errNotFound):
			respondInternal(c, h.log, err, "check sub name")
			return
		}
	}
	if len(errs) > 0 {
		respondFieldErrors(c, errs)
		return
	}

	sub := &models.Sub{
		Name:        name,
		Title:       title,
		Description: req.Description,
		Username:    user.Username,
		Posts:       []*models.Post{},
	}
	if err := h.db.WithContext(ctx).Create(sub).Error; err != nil {
		respondInternal(c, h.log, err, "create sub")
		return
	}

	h.log.Info().Str("sub", sub.Name).Str("user", user.Username).Msg("sub created")
	c.JSON(http.StatusCreated, sub)
}

// Get handles GET /api/subs/:name. Posts come newest first.
func (h *SubHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.lookup(ctx, c.Param("name"))
	if errors.Is(err, errNotFound) {
		respondError(c, http.StatusNotFound, "sub_not_found", "sub not found")
		return
	}
	if err != nil {
		respondInternal(c, h.log, err, "find sub")
		return
	}

	var posts []*models.Post
	err = h.db.WithContext(ctx).
		Where("sub_name = ?", sub.Name).
		Order("created_at DESC").Order("id DESC").
		Find(&posts).Error
	if err != nil {
		respondInternal(c, h.log, err, "list sub posts")
		return
	}
	if err := decoratePosts(c, h.db, h.annotator, posts); err != nil {
		respondVoteError(c, h.log, err)
		return
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	sub.Posts = posts
	c.JSON(http.StatusOK, sub)
}

// Search handles GET /api/subs/search/:name, a case-insensitive substring
// match on sub names.
func (h *SubHandler) Search(c *gin.Context) {
	name := strings.ToLower(strings.TrimSpace(c.Param("name")))
	if name == "" {
		respondError(c, http.StatusBadRequest, "invalid_name", "Name must not be empty")
		return
	}

	var subs []models.Sub
	err := h.db.WithContext(c.Request.Context()).
		Where("LOWER(name) LIKE ?", "%"+name+"%").
		Order("name ASC").
		Find(&subs).Error
	if err != nil {
		respondInternal(c, h.log, err, "search subs")
		return
	}
	for i := range subs {
		subs[i].Posts = []*models.Post{}
	}
	if subs == nil {
		subs = []models.Sub{}
	}
	c.JSON(http.StatusOK, subs)
}
