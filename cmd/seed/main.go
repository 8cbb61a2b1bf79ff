package main

import (
	"flag"
	"fmt"
	"time"

	"readit/internal/config"
	"readit/internal/db"
	"readit/internal/middleware"
	"readit/internal/models"
)

var demoUsers = []struct{ username, email string }{
	{"alice", "alice@example.com"},
	{"bob", "bob@example.com"},
	{"carol", "carol@example.com"},
}

func main() {
	password := flag.String("password", "password", "password for every demo user")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of the printed tokens")
	flag.Parse()

	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "readit-seed")
	log := middleware.Logger

	gdb, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	users := make([]*models.User, 0, len(demoUsers))
	for _, u := range demoUsers {
		user, err := db.SeedUser(gdb, u.username, u.email, *password)
		if err != nil {
			log.Fatal().Err(err).Str("user", u.username).Msg("seed user")
		}
		users = append(users, user)
	}

	n, err := db.SeedSubs(gdb, users[0].Username, []models.Sub{
		{Name: "golang", Title: "The Go Programming Language", Description: "News and discussion about Go."},
		{Name: "programming", Title: "Programming", Description: "Computer programming."},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed subs")
	}
	log.Info().Int("subs", n).Msg("subs seeded")

	post, err := db.SeedPost(gdb, "golang", users[0].Username, "Welcome to readit",
		"Vote with `POST /api/votes` and a bearer token from below.")
	if err != nil {
		log.Fatal().Err(err).Msg("seed post")
	}
	log.Info().Str("identifier", post.Identifier).Str("url", post.URL()).Msg("post seeded")

	for _, user := range users {
		token, err := middleware.IssueToken(cfg.Auth.JWTSecret, user.ID, *tokenTTL)
		if err != nil {
			log.Fatal().Err(err).Str("user", user.Username).Msg("issue token")
		}
		fmt.Printf("%s\t%s\n", user.Username, token)
	}
}
