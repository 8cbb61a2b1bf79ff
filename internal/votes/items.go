package votes

import (
	"context"

	"readit/internal/models"

	"gorm.io/gorm"
)

// ItemResolver turns the public identifier of a post or comment into its
// ledger key, failing with ErrItemNotFound when there is no such item.
type ItemResolver interface {
	Resolve(ctx context.Context, kind models.ItemKind, identifier string) (models.ItemKey, error)
}

type GormItems struct {
	db *gorm.DB
}

func NewGormItems(db *gorm.DB) *GormItems {
	return &GormItems{db: db}
}

func (r *GormItems) Resolve(ctx context.Context, kind models.ItemKind, identifier string) (models.ItemKey, error) {
	var model any
	switch kind {
	case models.KindPost:
		model = &models.Post{}
	case models.KindComment:
		model = &models.Comment{}
	default:
		return models.ItemKey{}, ErrInvalidItemKind
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(model).
		Where("identifier = ?", identifier).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return models.ItemKey{}, classify(err)
	}
	if len(ids) == 0 {
		return models.ItemKey{}, ErrItemNotFound
	}
	return models.ItemKey{Kind: kind, ID: ids[0]}, nil
}
