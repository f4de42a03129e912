package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JustMelih/GameVault/internal/catalog"
)

// Merge concatenates main and hint results, drops duplicates by id and then
// by normalized name keeping the first occurrence, and removes spam-like
// entries.
func Merge(main []catalog.Entry, hints ...[]catalog.Entry) []catalog.Entry {
	total := len(main)
	for _, h := range hints {
		total += len(h)
	}

	all := make([]catalog.Entry, 0, total)
	all = append(all, main...)
	for _, h := range hints {
		all = append(all, h...)
	}

	seenID := make(map[int]struct{}, total)
	seenName := make(map[string]struct{}, total)
	out := make([]catalog.Entry, 0, total)

	for _, e := range all {
		if _, dup := seenID[e.ID]; dup {
			continue
		}
		seenID[e.ID] = struct{}{}

		name := NormalizeName(e.Name)
		if _, dup := seenName[name]; dup {
			continue
		}
		seenName[name] = struct{}{}

		if LooksLikeSpam(e.Name) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// NormalizeName trims, lowercases and strips trailing . ! ? so near-identical
// listings compare equal.
func NormalizeName(name string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(name)), ".!?")
}

// LooksLikeSpam flags names that are too short, repeat a word three or more
// times, or are mostly punctuation and symbols. Names with no letters at all
// (such as "2048") are kept.
func LooksLikeSpam(name string) bool {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 3 {
		return true
	}

	lower := strings.ToLower(name)
	counts := make(map[string]int)
	for _, w := range strings.Split(lower, " ") {
		if w == "" {
			continue
		}
		counts[w]++
		if counts[w] >= 3 {
			return true
		}
	}

	letters, others := 0, 0
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
		default:
			others++
		}
	}
	return letters > 0 && others > letters
}
