package search

import (
	"iter"
	"slices"
	"strings"

	"github.com/JustMelih/GameVault/internal/catalog"
)

// synonyms expands an excluded concept to its near-synonyms. Entries overlap
// so excluding either word blocks the whole cluster.
var synonyms = map[string][]string{
	"magic":  {"magic", "mage", "wizard", "sorcerer"},
	"wizard": {"wizard", "mage", "sorcerer", "magic"},
}

// Exclude drops entries whose name, genres or platforms mention an excluded
// concept. Order is preserved; with no exclusions the input is returned
// as is.
func Exclude(entries []catalog.Entry, exclude []string) []catalog.Entry {
	if len(normalizeExcludes(exclude)) == 0 {
		return entries
	}
	return slices.Collect(ExcludeSeq(slices.Values(entries), exclude))
}

// ExcludeSeq is the streaming form of Exclude.
func ExcludeSeq(entries iter.Seq[catalog.Entry], exclude []string) iter.Seq[catalog.Entry] {
	tokens := normalizeExcludes(exclude)
	if len(tokens) == 0 {
		return entries
	}

	return func(yield func(catalog.Entry) bool) {
		for e := range entries {
			if blocked(haystack(e), tokens) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func normalizeExcludes(exclude []string) []string {
	out := make([]string, 0, len(exclude))
	for _, t := range exclude {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func blocked(hay string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(hay, t) {
			return true
		}
		for _, w := range synonyms[t] {
			if strings.Contains(hay, w) {
				return true
			}
		}
	}
	return false
}

// haystack is the lowercased name, genres and platforms of an entry.
func haystack(e catalog.Entry) string {
	parts := make([]string, 0, 1+len(e.Genres)+len(e.Platforms))
	parts = append(parts, e.Name)
	parts = append(parts, e.Genres...)
	parts = append(parts, e.Platforms...)
	return strings.ToLower(strings.Join(parts, " "))
}
