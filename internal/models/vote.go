package models

import (
	"fmt"
	"time"
)

// ItemKind tags the two votable item variants.
type ItemKind string

const (
	KindPost    ItemKind = "post"
	KindComment ItemKind = "comment"
)

func (k ItemKind) Valid() bool {
	return k == KindPost || k == KindComment
}

// ItemKey identifies a votable item in the vote ledger.
type ItemKey struct {
	Kind ItemKind
	ID   uint
}

func (k ItemKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// Vote is one voter's vote on one item. Value is -1, 0 or 1; 0 is a
// retracted vote and the row is kept.
// (user_id, item_kind, item_id) is unique, so a voter has at most one row per item.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_voter_item,priority:1" json:"-"`
	ItemKind  ItemKind  `gorm:"size:16;not null;uniqueIndex:idx_votes_voter_item,priority:2;index:idx_votes_item,priority:1" json:"itemKind"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_votes_voter_item,priority:3;index:idx_votes_item,priority:2" json:"-"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v Vote) Key() ItemKey {
	return ItemKey{Kind: v.ItemKind, ID: v.ItemID}
}
