package votes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"readit/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisLedger keeps one hash per item, field = voter id, value = vote value.
// A hash field is unique by construction and HSET replaces it atomically,
// so concurrent casts for the same pair can never produce two rows.
type RedisLedger struct {
	rdb       redis.Cmdable
	prefix    string
	batchSize int
}

func NewRedisLedger(rdb redis.Cmdable, batchSize int) *RedisLedger {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &RedisLedger{rdb: rdb, prefix: "votes", batchSize: batchSize}
}

func (l *RedisLedger) key(item models.ItemKey) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, item.Kind, item.ID)
}

func (l *RedisLedger) FindVote(ctx context.Context, voterID uint, item models.ItemKey) (*models.Vote, error) {
	value, err := l.rdb.HGet(ctx, l.key(item), voterField(voterID)).Int()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &models.Vote{UserID: voterID, ItemKind: item.Kind, ItemID: item.ID, Value: value}, nil
}

func (l *RedisLedger) UpsertVote(ctx context.Context, voterID uint, item models.ItemKey, value int) (models.Vote, error) {
	if err := l.rdb.HSet(ctx, l.key(item), voterField(voterID), value).Err(); err != nil {
		return models.Vote{}, classify(err)
	}
	return models.Vote{
		UserID:    voterID,
		ItemKind:  item.Kind,
		ItemID:    item.ID,
		Value:     value,
		UpdatedAt: time.Now(),
	}, nil
}

func (l *RedisLedger) VotesForItems(ctx context.Context, items []models.ItemKey) (map[models.ItemKey][]models.Vote, error) {
	keys := uniqueKeys(items)
	result := make(map[models.ItemKey][]models.Vote, len(keys))

	for start := 0; start < len(keys); start += l.batchSize {
		chunk := keys[start:min(start+l.batchSize, len(keys))]

		pipe := l.rdb.Pipeline()
		cmds := make([]*redis.MapStringStringCmd, len(chunk))
		for i, k := range chunk {
			cmds[i] = pipe.HGetAll(ctx, l.key(k))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, classify(err)
		}

		for i, k := range chunk {
			votes, err := parseVotes(k, cmds[i].Val())
			if err != nil {
				return nil, err
			}
			result[k] = votes
		}
	}
	return result, nil
}

func parseVotes(item models.ItemKey, fields map[string]string) ([]models.Vote, error) {
	votes := make([]models.Vote, 0, len(fields))
	for voter, raw := range fields {
		voterID, err := strconv.ParseUint(voter, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ledger %s: bad voter field %q: %w", item, voter, err)
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("ledger %s: bad vote value %q: %w", item, raw, err)
		}
		votes = append(votes, models.Vote{
			UserID:   uint(voterID),
			ItemKind: item.Kind,
			ItemID:   item.ID,
			Value:    value,
		})
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].UserID < votes[j].UserID })
	return votes, nil
}

func voterField(voterID uint) string {
	return strconv.FormatUint(uint64(voterID), 10)
}
