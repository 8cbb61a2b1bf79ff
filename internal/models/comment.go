package models

import (
	"time"
)

type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Identifier string    `gorm:"uniqueIndex;size:8;not null" json:"identifier"`
	PostID     uint      `gorm:"not null;index" json:"-"`
	Post       *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post,omitempty"`
	Username   string    `gorm:"not null;index" json:"username"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Votes     []Vote `gorm:"-" json:"-"`
	VoteScore int    `gorm:"-" json:"voteScore"`
	UserVote  int    `gorm:"-" json:"userVote"`
	BodyHTML  string `gorm:"-" json:"bodyHtml,omitempty"`
}

func (c *Comment) VoteKey() ItemKey {
	return ItemKey{Kind: KindComment, ID: c.ID}
}

func (c *Comment) SetVotes(votes []Vote) {
	c.Votes = votes
}

func (c *Comment) LoadedVotes() []Vote {
	return c.Votes
}

func (c *Comment) SetTally(score, userVote int) {
	c.VoteScore = score
	c.UserVote = userVote
}
