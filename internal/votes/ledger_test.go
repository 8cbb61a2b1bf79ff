package votes

import (
	"context"
	"testing"

	"readit/internal/models"
	"readit/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ledgerFactories runs the same contract tests against every backend.
var ledgerFactories = map[string]func(t *testing.T, batchSize int) Ledger{
	"gorm": func(t *testing.T, batchSize int) Ledger {
		return NewGormLedger(testutil.SetupTestDB(t), batchSize)
	},
	"redis": func(t *testing.T, batchSize int) Ledger {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return NewRedisLedger(rdb, batchSize)
	},
}

func TestLedgerFindVoteMissing(t *testing.T) {
	for name, newLedger := range ledgerFactories {
		t.Run(name, func(t *testing.T) {
			l := newLedger(t, 0)
			v, err := l.FindVote(context.Background(), 1, models.ItemKey{Kind: models.KindPost, ID: 1})
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestLedgerUpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	item := models.ItemKey{Kind: models.KindPost, ID: 7}

	for name, newLedger := range ledgerFactories {
		t.Run(name, func(t *testing.T) {
			l := newLedger(t, 0)

			for _, value := range []int{1, -1, 0, 1} {
				v, err := l.UpsertVote(ctx, 3, item, value)
				require.NoError(t, err)
				assert.Equal(t, value, v.Value)
			}

			found, err := l.FindVote(ctx, 3, item)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, 1, found.Value)

			byItem, err := l.VotesForItems(ctx, []models.ItemKey{item})
			require.NoError(t, err)
			assert.Len(t, byItem[item], 1)
		})
	}
}

func TestLedgerVotesForItems(t *testing.T) {
	ctx := context.Background()
	post1 := models.ItemKey{Kind: models.KindPost, ID: 1}
	post2 := models.ItemKey{Kind: models.KindPost, ID: 2}
	comment1 := models.ItemKey{Kind: models.KindComment, ID: 1}
	empty := models.ItemKey{Kind: models.KindPost, ID: 99}

	for name, newLedger := range ledgerFactories {
		t.Run(name, func(t *testing.T) {
			// batch size 2 forces more than one batch for four keys
			l := newLedger(t, 2)

			mustUpsert(t, l, 1, post1, 1)
			mustUpsert(t, l, 2, post1, -1)
			mustUpsert(t, l, 1, post2, 1)
			mustUpsert(t, l, 1, comment1, -1)

			byItem, err := l.VotesForItems(ctx, []models.ItemKey{post1, post2, comment1, empty, post1})
			require.NoError(t, err)

			require.Len(t, byItem, 4)
			assert.Len(t, byItem[post1], 2)
			assert.Len(t, byItem[post2], 1)
			assert.Len(t, byItem[comment1], 1)
			assert.Equal(t, -1, byItem[comment1][0].Value)
			assert.NotNil(t, byItem[empty], "items without votes must map to an empty slice")
			assert.Empty(t, byItem[empty])

			// post 1 and comment 1 share an id; kinds must not mix
			for _, v := range byItem[comment1] {
				assert.Equal(t, models.KindComment, v.ItemKind)
			}
		})
	}
}

func TestLedgerVotesForNoItems(t *testing.T) {
	for name, newLedger := range ledgerFactories {
		t.Run(name, func(t *testing.T) {
			byItem, err := newLedger(t, 0).VotesForItems(context.Background(), nil)
			require.NoError(t, err)
			assert.Empty(t, byItem)
		})
	}
}

func TestGormLedgerSingleQueryPerBatch(t *testing.T) {
	gdb := testutil.SetupTestDB(t)

	var queries int
	require.NoError(t, gdb.Callback().Query().Before("gorm:query").Register("count_queries", func(*gorm.DB) {
		queries++
	}))

	l := NewGormLedger(gdb, 100)
	keys := make([]models.ItemKey, 0, 250)
	for i := 1; i <= 250; i++ {
		keys = append(keys, models.ItemKey{Kind: models.KindPost, ID: uint(i)})
	}
	keys = append(keys, models.ItemKey{Kind: models.KindComment, ID: 1})

	_, err := l.VotesForItems(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, 3, queries, "251 keys at batch size 100 should take 3 queries")
}

func TestRedisLedgerOrdersByVoter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisLedger(rdb, 0)
	item := models.ItemKey{Kind: models.KindPost, ID: 5}
	for _, voter := range []uint{9, 2, 5} {
		mustUpsert(t, l, voter, item, 1)
	}

	byItem, err := l.VotesForItems(context.Background(), []models.ItemKey{item})
	require.NoError(t, err)
	require.Len(t, byItem[item], 3)
	assert.Equal(t, uint(2), byItem[item][0].UserID)
	assert.Equal(t, uint(5), byItem[item][1].UserID)
	assert.Equal(t, uint(9), byItem[item][2].UserID)
	assert.Equal(t, "1", mr.HGet("votes:post:5", "9"))
}

func mustUpsert(t *testing.T, l Ledger, voter uint, item models.ItemKey, value int) {
	t.Helper()
	_, err := l.UpsertVote(context.Background(), voter, item, value)
	require.NoError(t, err)
}
