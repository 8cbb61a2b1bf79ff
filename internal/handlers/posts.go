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

var errNotFound = errors.New("not found")

type PostHandler struct {
	db        *gorm.DB
	annotator *votes.Annotator
	log       zerolog.Logger
}

func NewPostHandler(db *gorm.DB, annotator *votes.Annotator, log zerolog.Logger) *PostHandler {
	return &PostHandler{db: db, annotator: annotator, log: log}
}

// fillCommentCounts sets CommentCount on every post with one grouped query.
func fillCommentCounts(ctx context.Context, db *gorm.DB, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var rows []struct {
		PostID uint
		Count  int
	}
	err := db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.Count
	}
	for _, p := range posts {
		p.CommentCount = counts[p.ID]
	}
	return nil
}

// decoratePosts adds comment counts and the viewer's tallies to a listing.
func decoratePosts(c *gin.Context, db *gorm.DB, annotator *votes.Annotator, posts []*models.Post) error {
	ctx := c.Request.Context()
	if err := fillCommentCounts(ctx, db, posts); err != nil {
		return err
	}
	_, err := annotator.Annotate(ctx, middleware.ViewerID(c), votes.Items(posts)...)
	return err
}

func findPost(ctx context.Context, db *gorm.DB, identifier string) (*models.Post, error) {
	var posts []*models.Post
	if err := db.WithContext(ctx).Where("identifier = ?", identifier).Limit(1).Find(&posts).Error; err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, errNotFound
	}
	return posts[0], nil
}

// List handles GET /api/posts?sort=new|top&page=N.
func (h *PostHandler) List(c *gin.Context) {
	sort := c.DefaultQuery("sort", "new")
	page := utils.PageParam(c.Query("page"))

	q := h.db.WithContext(c.Request.Context()).Model(&models.Post{})
	switch sort {
	case "new":
		q = q.Order("created_at DESC").Order("id DESC")
	case "top":
		q = q.Order("hot_rank DESC").Order("created_at DESC")
	default:
		respondError(c, http.StatusBadRequest, "invalid_sort", "sort must be new or top")
		return
	}

	var posts []*models.Post
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		respondInternal(c, h.log, err, "list posts")
		return
	}
	if err := decoratePosts(c, h.db, h.annotator, posts); err != nil {
		respondVoteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page, "sort": sort})
}

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sub   string `json:"sub"`
}

// Create handles POST /api/posts.
func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondFieldErrors(c, map[string]string{"title": "Title must not be empty"})
		return
	}

	ctx := c.Request.Context()
	sub, err := findSub(ctx, h.db, req.Sub)
	if errors.Is(err, errNotFound) {
		respondError(c, http.StatusNotFound, "sub_not_found", "sub not found")
		return
	}
	if err != nil {
		respondInternal(c, h.log, err, "find sub")
		return
	}

	post := &models.Post{
		Identifier: utils.MakeID(7),
		Slug:       utils.Slugify(title),
		Title:      title,
		Body:       req.Body,
		SubName:    sub.Name,
		Username:   user.Username,
		Votes:      []models.Vote{},
	}
	if err := h.db.WithContext(ctx).Create(post).Error; err != nil {
		respondInternal(c, h.log, err, "create post")
		return
	}
	post.BodyHTML = utils.RenderMarkdown(post.Body)

	h.log.Info().Str("identifier", post.Identifier).Str("sub", sub.Name).Str("user", user.Username).Msg("post created")
	c.JSON(http.StatusCreated, post)
}

// Get handles GET /api/posts/:identifier and /api/posts/:identifier/:slug.
func (h *PostHandler) Get(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	posts := []*models.Post{post}
	if err := decoratePosts(c, h.db, h.annotator, posts); err != nil {
		respondVoteError(c, h.log, err)
		return
	}
	post.BodyHTML = utils.RenderMarkdown(post.Body)
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) loadPost(c *gin.Context) (*models.Post, bool) {
	post, err := findPost(c.Request.Context(), h.db, c.Param("identifier"))
	if errors.Is(err, errNotFound) {
		respondError(c, http.StatusNotFound, "post_not_found", "post not found")
		return nil, false
	}
	if err != nil {
		respondInternal(c, h.log, err, "find post")
		return nil, false
	}
	return post, true
}

// ListComments handles GET /api/posts/:identifier/comments.
func (h *PostHandler) ListComments(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var comments []*models.Comment
	err := h.db.WithContext(ctx).
		Where("post_id = ?", post.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		respondInternal(c, h.log, err, "list comments")
		return
	}

	if _, err := h.annotator.Annotate(ctx, middleware.ViewerID(c), votes.Items(comments)...); err != nil {
		respondVoteError(c, h.log, err)
		return
	}
	for _, cm := range comments {
		cm.BodyHTML = utils.RenderMarkdown(cm.Body)
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type createCommentRequest struct {
	Body string `json:"body"`
}

// CreateComment handles POST /api/posts/:identifier/comments.
func (h *PostHandler) CreateComment(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		respondFieldErrors(c, map[string]string{"body": "Body must not be empty"})
		return
	}

	post, ok := h.loadPost(c)
	if !ok {
		return
	}

	comment := &models.Comment{
		Identifier: utils.MakeID(8),
		PostID:     post.ID,
		Username:   user.Username,
		Body:       req.Body,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(comment).Error; err != nil {
		respondInternal(c, h.log, err, "create comment")
		return
	}
	comment.BodyHTML = utils.RenderMarkdown(comment.Body)

	c.JSON(http.StatusCreated, comment)
}
