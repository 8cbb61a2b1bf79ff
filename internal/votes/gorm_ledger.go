package votes

import (
	"context"
	"strings"

	"readit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultBatchSize = 500

// GormLedger keeps votes in the votes table. The composite unique index on
// (user_id, item_kind, item_id) backs the one-vote-per-voter invariant.
type GormLedger struct {
	db        *gorm.DB
	batchSize int
}

func NewGormLedger(db *gorm.DB, batchSize int) *GormLedger {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &GormLedger{db: db, batchSize: batchSize}
}

func (l *GormLedger) FindVote(ctx context.Context, voterID uint, item models.ItemKey) (*models.Vote, error) {
	var found []models.Vote
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND item_kind = ? AND item_id = ?", voterID, item.Kind, item.ID).
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, classify(err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (l *GormLedger) UpsertVote(ctx context.Context, voterID uint, item models.ItemKey, value int) (models.Vote, error) {
	vote := models.Vote{
		UserID:   voterID,
		ItemKind: item.Kind,
		ItemID:   item.ID,
		Value:    value,
	}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_kind"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&vote).Error
	if err != nil {
		return models.Vote{}, classify(err)
	}
	return vote, nil
}

func (l *GormLedger) VotesForItems(ctx context.Context, items []models.ItemKey) (map[models.ItemKey][]models.Vote, error) {
	keys := uniqueKeys(items)
	result := make(map[models.ItemKey][]models.Vote, len(keys))
	for _, k := range keys {
		result[k] = []models.Vote{}
	}

	for start := 0; start < len(keys); start += l.batchSize {
		end := min(start+l.batchSize, len(keys))

		query, args := itemsCondition(keys[start:end])
		var rows []models.Vote
		err := l.db.WithContext(ctx).
			Where(query, args...).
			Order("id ASC").
			Find(&rows).Error
		if err != nil {
			return nil, classify(err)
		}

		for _, v := range rows {
			k := v.Key()
			result[k] = append(result[k], v)
		}
	}
	return result, nil
}

// itemsCondition builds "(item_kind = ? AND item_id IN ?) OR ..." with one
// group per kind present in keys.
func itemsCondition(keys []models.ItemKey) (string, []any) {
	idsByKind := make(map[models.ItemKind][]uint, 2)
	for _, k := range keys {
		idsByKind[k.Kind] = append(idsByKind[k.Kind], k.ID)
	}

	var groups []string
	var args []any
	for _, kind := range []models.ItemKind{models.KindPost, models.KindComment} {
		ids, ok := idsByKind[kind]
		if !ok {
			continue
		}
		groups = append(groups, "(item_kind = ? AND item_id IN ?)")
		args = append(args, kind, ids)
	}
	return strings.Join(groups, " OR "), args
}
