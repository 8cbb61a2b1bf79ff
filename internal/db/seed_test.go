package db_test

import (
	"testing"

	"readit/internal/db"
	"readit/internal/models"
	"readit/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedUserHashesOnce(t *testing.T) {
	gdb := testutil.SetupTestDB(t)

	user, err := db.SeedUser(gdb, "dave", "dave@example.com", "hunter2")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("hunter2")))

	again, err := db.SeedUser(gdb, "dave", "dave@example.com", "other")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestSeedSubsOnlyWhenEmpty(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	subs := []models.Sub{{Name: "golang", Title: "Go"}, {Name: "rust", Title: "Rust"}}

	n, err := db.SeedSubs(gdb, "alice", subs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.SeedSubs(gdb, "alice", subs)
	require.NoError(t, err)
	assert.Zero(t, n)

	var stored models.Sub
	require.NoError(t, gdb.Where("name = ?", "rust").First(&stored).Error)
	assert.Equal(t, "alice", stored.Username)
}

func TestSeedPostIdempotent(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	testutil.CreateSub(t, gdb, "golang", "alice")

	post, err := db.SeedPost(gdb, "golang", "alice", "Hello World", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello_world", post.Slug)
	assert.Len(t, post.Identifier, 7)

	again, err := db.SeedPost(gdb, "golang", "alice", "Hello World", "hi")
	require.NoError(t, err)
	assert.Equal(t, post.ID, again.ID)
}

func TestMigrateCreatesVoteUniqueIndex(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	assert.True(t, gdb.Migrator().HasIndex(&models.Vote{}, "idx_votes_voter_item"))
	assert.True(t, gdb.Migrator().HasIndex(&models.Vote{}, "idx_votes_item"))
}
