package pattern

import (
	"bufio"
	"io"
	"strings"
)

// MaxKeywordLength bounds a single keyword; longer lines are noise, not phrases
const MaxKeywordLength = 200

// ListStats tracks keyword list parsing statistics
type ListStats struct {
	Total       int
	Loaded      int
	Comments    int
	SkipReasons map[string]int // detailed breakdown of skipped lines
}

// Skip reason constants
const (
	SkipEmpty     = "empty"
	SkipDuplicate = "duplicate"
	SkipTooLong   = "too-long"
)

// ParseList reads a plain-text keyword list, one phrase per line.
// Lines starting with # or ! are comments. Duplicates are dropped
// case-insensitively, keeping first-seen order.
func ParseList(r io.Reader) ([]string, ListStats, error) {
	stats := ListStats{SkipReasons: make(map[string]int)}

	var keywords []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		stats.Total++

		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			stats.Comments++
			continue
		}
		if line == "" {
			stats.SkipReasons[SkipEmpty]++
			continue
		}
		if len(line) > MaxKeywordLength {
			stats.SkipReasons[SkipTooLong]++
			continue
		}

		key := strings.ToLower(line)
		if seen[key] {
			stats.SkipReasons[SkipDuplicate]++
			continue
		}
		seen[key] = true

		keywords = append(keywords, line)
		stats.Loaded++
	}

	return keywords, stats, scanner.Err()
}
