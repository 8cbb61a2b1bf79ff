package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Identifier string    `gorm:"uniqueIndex;size:7;not null" json:"identifier"`
	Slug       string    `gorm:"index;not null" json:"slug"`
	Title      string    `gorm:"not null" json:"title"`
	Body       string    `gorm:"type:text" json:"body"`
	SubName    string    `gorm:"not null;index" json:"subName"`
	Username   string    `gorm:"not null;index" json:"username"`
	HotRank    float64   `gorm:"default:0;index" json:"-"` // sort key, refreshed by the ranking worker
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Filled at query time. Votes stays nil until the ledger has been read.
	Votes        []Vote `gorm:"-" json:"-"`
	VoteScore    int    `gorm:"-" json:"voteScore"`
	UserVote     int    `gorm:"-" json:"userVote"`
	CommentCount int    `gorm:"-" json:"commentCount"`
	BodyHTML     string `gorm:"-" json:"bodyHtml,omitempty"`
}

func (p *Post) URL() string {
	return fmt.Sprintf("/p/%s/%s/%s", p.SubName, p.Identifier, p.Slug)
}

// MarshalJSON adds the derived url to the serialised post.
func (p Post) MarshalJSON() ([]byte, error) {
	type plain Post
	return json.Marshal(struct {
		plain
		URL string `json:"url"`
	}{plain(p), p.URL()})
}

func (p *Post) VoteKey() ItemKey {
	return ItemKey{Kind: KindPost, ID: p.ID}
}

func (p *Post) SetVotes(votes []Vote) {
	p.Votes = votes
}

func (p *Post) LoadedVotes() []Vote {
	return p.Votes
}

func (p *Post) SetTally(score, userVote int) {
	p.VoteScore = score
	p.UserVote = userVote
}
