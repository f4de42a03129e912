// Package search turns a resolved intent and catalog results into a ranked,
// diversified list of games.
package search

import (
	"regexp"
	"strings"

	"github.com/JustMelih/GameVault/internal/intent"
)

// MaxHints caps the per-title hint searches.
const MaxHints = 2

var fillerWords = regexp.MustCompile(`(?i)\b(game|where|we|play|in|as|the|a|an)\b`)

var spaces = regexp.MustCompile(`\s+`)

// BuildQueries returns the main catalog query and the hint queries for a
// request. Fallback intents never produce hints.
func BuildQueries(query string, in intent.Intent, usedFallback bool) (string, []string) {
	clean := fillerWords.ReplaceAllString(query, "")
	main := strings.Join([]string{clean, strings.Join(in.Include, " ")}, " ")
	main = strings.TrimSpace(spaces.ReplaceAllString(main, " "))

	if usedFallback {
		return main, []string{}
	}
	return main, HintQueries(in.Titles, MaxHints)
}

// HintQueries trims titles, drops blanks and case-insensitive duplicates and
// keeps at most max.
func HintQueries(titles []string, max int) []string {
	out := make([]string, 0, max)
	seen := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		if len(out) >= max {
			break
		}
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
