package search

import (
	"strings"

	"github.com/JustMelih/GameVault/internal/catalog"
)

const maxReasons = 3

// Explain returns up to three short reasons for showing e: matched include
// tokens, genres, platforms and release date, in that order of preference.
func Explain(e catalog.Entry, include []string) []string {
	reasons := make([]string, 0, maxReasons)

	hay := haystack(e)
	var matched []string
	for _, tok := range include {
		if tok != "" && strings.Contains(hay, strings.ToLower(tok)) {
			matched = append(matched, tok)
		}
	}

	if len(matched) > 0 {
		reasons = append(reasons, "Matched: "+joinFirst(matched, 2))
	}
	if len(e.Genres) > 0 {
		reasons = append(reasons, "Genres: "+joinFirst(e.Genres, 2))
	}
	if len(e.Platforms) > 0 {
		reasons = append(reasons, "Platforms: "+joinFirst(e.Platforms, 2))
	}
	if r := strings.TrimSpace(e.Released); r != "" {
		reasons = append(reasons, "Release: "+r)
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

func joinFirst(list []string, n int) string {
	if len(list) > n {
		list = list[:n]
	}
	return strings.Join(list, ", ")
}
