package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// PageParam parses a 1-based page number, falling back to 1.
func PageParam(s string) int {
	if page := StringToInt(s); page > 0 {
		return page
	}
	return 1
}
