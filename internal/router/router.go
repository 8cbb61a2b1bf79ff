package router

import (
	"readit/internal/handlers"
	"readit/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers holds the handler instances the routes dispatch to.
type Handlers struct {
	Vote    *handlers.VoteHandler
	Sub     *handlers.SubHandler
	Post    *handlers.PostHandler
	Health  *handlers.HealthHandler
	Metrics gin.HandlerFunc
}

// RegisterRoutes mounts the JSON API. Identity middleware must already be
// installed on r (see Setup).
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/healthz", h.Health.Health)
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics)
	}

	api := r.Group("/api")

	// Public routes
	api.GET("/subs/search/:name", h.Sub.Search)
	api.GET("/subs/:name", h.Sub.Get)
	api.GET("/posts", h.Post.List)
	api.GET("/posts/:identifier", h.Post.Get)
	api.GET("/posts/:identifier/comments", h.Post.ListComments)
	api.GET("/posts/:identifier/:slug", h.Post.Get)

	// Protected routes
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/votes", h.Vote.Cast)
		authorized.POST("/subs", h.Sub.Create)
		authorized.POST("/posts", h.Post.Create)
		authorized.POST("/posts/:identifier/comments", h.Post.CreateComment)
	}
}

// Options configures the middleware stack built by Setup.
type Options struct {
	DB         *gorm.DB
	JWTSecret  string
	CORSOrigin string
	Sessions   gin.HandlerFunc
}

// Setup installs the middleware stack and routes on r.
func Setup(r *gin.Engine, h *Handlers, opts Options) {
	log := middleware.Logger
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	r.Use(middleware.CORS(opts.CORSOrigin))
	if opts.Sessions != nil {
		r.Use(opts.Sessions)
	}
	r.Use(middleware.LoadUser(opts.DB, opts.JWTSecret, log))

	RegisterRoutes(r, h)
}
