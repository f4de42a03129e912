package intent

import "strings"

// MaxInclude caps the include list after pruning.
const MaxInclude = 6

var warTerms = []string{"war", "military", "soldier", "battle"}

var warFranchises = []string{"battlefield", "crysis", "arma", "medal of honor", "company of heroes"}

var stopWords = map[string]struct{}{
	"game": {}, "games": {}, "video": {}, "videogame": {},
	"the": {}, "a": {}, "an": {},
	"play": {}, "player": {}, "we": {},
}

// Enrich broadens include tokens with franchise aliases and then prunes stop
// words. It returns a new Intent; in is not modified.
func Enrich(query string, in Intent) Intent {
	out := in.Clone()
	q := strings.ToLower(query)

	for _, term := range warTerms {
		if strings.Contains(q, term) {
			for _, f := range warFranchises {
				out.Include = appendMissing(out.Include, f)
			}
			break
		}
	}

	// Yearly sports series renamed from FIFA.
	if anyContainsFold(out.Include, "fifa") {
		out.Include = appendMissing(out.Include, "ea sports fc")
		if !anyContainsFold(out.Titles, "EA SPORTS FC") {
			out.Titles = append(out.Titles, "EA SPORTS FC 25")
		}
	}

	if anyContainsFold(out.Include, "city") && anyContainsFold(out.Include, "build") {
		out.Include = appendMissing(out.Include, "city builder")
		if !anyContainsFold(out.Titles, "Cities: Skylines II") {
			out.Titles = append(out.Titles, "Cities: Skylines II")
		}
	}

	out.Include = PruneStopWords(out.Include)
	return out
}

// PruneStopWords drops stop words and tokens shorter than three characters,
// deduplicates and caps the result at MaxInclude.
func PruneStopWords(tokens []string) []string {
	out := make([]string, 0, MaxInclude)
	for _, t := range tokens {
		if len(out) == MaxInclude {
			break
		}
		if _, stop := stopWords[strings.ToLower(t)]; stop {
			continue
		}
		if len([]rune(t)) < 3 || containsFold(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func appendMissing(list []string, token string) []string {
	if containsFold(list, token) {
		return list
	}
	return append(list, token)
}
