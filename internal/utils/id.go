package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// MakeID returns a random alphanumeric identifier of length n.
func MakeID(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		sb.WriteByte(idAlphabet[idx.Int64()])
	}
	return sb.String()
}

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9\s_-]`)
	slugSpace = regexp.MustCompile(`[\s_-]+`)
)

// Slugify lowercases s and joins its words with underscores, dropping
// anything that is not a letter or digit.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
