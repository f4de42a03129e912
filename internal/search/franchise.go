package search

import (
	"regexp"
	"strings"
)

// Sub-lines of these series collapse to the series itself.
var megaFranchises = []string{
	"call of duty",
	"battlefield",
	"medal of honor",
	"crysis",
	"arma",
	"company of heroes",
	"total war",
}

var (
	editionWords  = regexp.MustCompile(`\b(remastered|definitive|ultimate|deluxe|goty|edition|unlimited|complete)\b`)
	romanNumerals = regexp.MustCompile(`\b(ii|iii|iv|v|vi|vii|viii|ix|x)\b`)
	bareNumbers   = regexp.MustCompile(`\b\d{2,4}\b`)
)

// FranchiseKey normalizes a game name so sequels and editions of the same
// series share a key.
func FranchiseKey(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("–", "-", "—", "-").Replace(n)

	for _, f := range megaFranchises {
		if strings.HasPrefix(n, f) {
			return f
		}
	}

	if cut := strings.Index(n, ":"); cut > 0 {
		n = n[:cut]
	}
	if cut := strings.Index(n, " - "); cut > 0 {
		n = n[:cut]
	}

	n = editionWords.ReplaceAllString(n, "")
	n = romanNumerals.ReplaceAllString(n, "")
	n = bareNumbers.ReplaceAllString(n, "")

	return strings.TrimSpace(spaces.ReplaceAllString(n, " "))
}
