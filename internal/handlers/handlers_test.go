package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"readit/internal/middleware"
	"readit/internal/models"
	"readit/internal/services"
	"readit/internal/testutil"
	"readit/internal/utils"
	"readit/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handlers-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type rankRecorder struct {
	mu  sync.Mutex
	ids []uint
}

func (r *rankRecorder) ScheduleUpdate(postID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, postID)
}

func (r *rankRecorder) scheduled() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.ids...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []services.VoteEvent
}

func (p *eventRecorder) Publish(_ context.Context, ev services.VoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *eventRecorder) Close() error { return nil }

func (p *eventRecorder) published() []services.VoteEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]services.VoteEvent(nil), p.events...)
}

type env struct {
	t         *testing.T
	db        *gorm.DB
	engine    *gin.Engine
	ranks     *rankRecorder
	events    *eventRecorder
	alice     *models.User
	bob       *models.User
	sub       *models.Sub
	post      *models.Post
	comment   *models.Comment
	subCache  *utils.Cache[models.Sub]
	voteSvc   *votes.Service
	annotator *votes.Annotator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutil.SetupTestDB(t)
	e := &env{
		t:      t,
		db:     gdb,
		ranks:  &rankRecorder{},
		events: &eventRecorder{},
	}
	e.alice = testutil.CreateUser(t, gdb, "alice")
	e.bob = testutil.CreateUser(t, gdb, "bob")
	e.sub = testutil.CreateSub(t, gdb, "golang", "alice")
	e.post = testutil.CreatePost(t, gdb, "golang", "alice", "Hello Gophers")
	e.comment = testutil.CreateComment(t, gdb, e.post, "bob", "*welcome*")

	log := zerolog.Nop()
	ledger := votes.NewGormLedger(gdb, 0)
	e.voteSvc = votes.NewService(ledger, votes.NewGormItems(gdb), time.Second, log)
	e.annotator = votes.NewAnnotator(ledger, log)

	cache, err := utils.NewCache[models.Sub](16, time.Minute)
	require.NoError(t, err)
	e.subCache = cache

	voteH := NewVoteHandler(gdb, e.voteSvc, e.annotator, e.ranks, e.events, log)
	subH := NewSubHandler(gdb, e.annotator, cache, log)
	postH := NewPostHandler(gdb, e.annotator, log)
	healthH := NewHealthHandler(gdb, nil)

	r := gin.New()
	r.Use(middleware.LoadUser(gdb, testSecret, log))
	r.GET("/healthz", healthH.Health)
	api := r.Group("/api")
	api.GET("/subs/search/:name", subH.Search)
	api.GET("/subs/:name", subH.Get)
	api.GET("/posts", postH.List)
	api.GET("/posts/:identifier", postH.Get)
	api.GET("/posts/:identifier/comments", postH.ListComments)
	api.GET("/posts/:identifier/:slug", postH.Get)
	authorized := api.Group("", middleware.AuthRequired())
	authorized.POST("/votes", voteH.Cast)
	authorized.POST("/subs", subH.Create)
	authorized.POST("/posts", postH.Create)
	authorized.POST("/posts/:identifier/comments", postH.CreateComment)
	e.engine = r
	return e
}

// do sends a request as user (nil for anonymous) and returns the recorder.
func (e *env) do(method, path string, user *models.User, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := middleware.IssueToken(testSecret, user.ID, time.Hour)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *env) vote(user *models.User, kind models.ItemKind, identifier string, value int) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/api/votes", user, gin.H{
		"itemKind":   kind,
		"identifier": identifier,
		"value":      value,
	})
}
