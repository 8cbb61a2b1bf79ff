package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity float64 // time decay exponent
	Offset  float64 // hours added to the age so new posts don't divide by ~0
}

var DefaultRankConfig = RankConfig{
	Gravity: 1.8,
	Offset:  2.0,
}

// HotRank is the Hacker News style rank: score / (age_hours + offset)^gravity.
// Net-negative scores keep their sign so buried posts sort below new ones.
func HotRank(score int, createdAt, now time.Time) float64 {
	return HotRankWith(DefaultRankConfig, score, createdAt, now)
}

func HotRankWith(cfg RankConfig, score int, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return float64(score) / math.Pow(hours+cfg.Offset, cfg.Gravity)
}
