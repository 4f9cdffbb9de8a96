package provider

import (
	"regexp"
	"strconv"
	"strings"
)

var countPattern = regexp.MustCompile(`(?i)([\d.,]+)\s*([KMB])?`)

// ParseCount parses human-formatted counts as scraped from pages, e.g.
// "1,234", "13.3K", "1.2M". Returns false when no number is present.
func ParseCount(s string) (int64, bool) {
	match := countPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil || match[1] == "" {
		return 0, false
	}
	number := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(match[2]) {
	case "K":
		value *= 1e3
	case "M":
		value *= 1e6
	case "B":
		value *= 1e9
	}
	return int64(value), true
}
