package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"readit/internal/config"
	"readit/internal/db"
	"readit/internal/models"
	"readit/internal/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// SetupTestDB opens a fresh, migrated in-memory SQLite database that lives
// for the duration of the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name, dbSeq.Add(1))
	return openTestDB(t, dsn, 1)
}

// SetupConcurrentDB opens a file-backed WAL database with a pool of
// maxConns connections, so concurrent writers really reach SQLite at the
// same time.
func SetupConcurrentDB(t *testing.T, maxConns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "readit.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)", path)
	return openTestDB(t, dsn, maxConns)
}

func openTestDB(t *testing.T, dsn string, maxConns int) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		URL:          dsn,
		MaxOpenConns: maxConns,
		MaxIdleConns: maxConns,
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

func CreateSub(t *testing.T, gdb *gorm.DB, name, owner string) *models.Sub {
	t.Helper()
	sub := &models.Sub{Name: name, Title: strings.ToUpper(name), Username: owner}
	require.NoError(t, gdb.Create(sub).Error)
	return sub
}

func CreatePost(t *testing.T, gdb *gorm.DB, sub, author, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		Identifier: utils.MakeID(7),
		Slug:       utils.Slugify(title),
		Title:      title,
		Body:       "body of " + title,
		SubName:    sub,
		Username:   author,
	}
	require.NoError(t, gdb.Create(post).Error)
	return post
}

func CreateComment(t *testing.T, gdb *gorm.DB, post *models.Post, author, body string) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		Identifier: utils.MakeID(8),
		PostID:     post.ID,
		Username:   author,
		Body:       body,
	}
	require.NoError(t, gdb.Create(comment).Error)
	return comment
}
