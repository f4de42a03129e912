package intent

import "strings"

type keywordRule struct {
	needles []string
	tokens  []string
}

// Turkish and English surface forms for the concepts the fallback knows.
var includeRules = []keywordRule{
	{[]string{"ortaçağ", "orta cag", "medieval"}, []string{"medieval"}},
	{[]string{"ejder", "ejderha", "dragon"}, []string{"dragon"}},
	{[]string{"uzay", "space", "sci-fi"}, []string{"space", "sci-fi"}},
	{[]string{"korku", "horror"}, []string{"horror"}},
	{[]string{"rpg"}, []string{"rpg"}},
	{[]string{"açık dünya", "acik dunya", "open world"}, []string{"open world"}},
	{[]string{"polis", "police"}, []string{"police"}},
	{[]string{"koval", "chase"}, []string{"chase"}},
	{[]string{"yarış", "yaris", "race", "racing"}, []string{"racing"}},
}

var excludeRules = []keywordRule{
	{[]string{"büyü olmasın", "buyu olmasin", "büyüsüz", "no magic"}, []string{"magic"}},
	{[]string{"sihir", "büyü"}, []string{"magic"}},
	{[]string{"sihirbaz", "wizard"}, []string{"wizard"}},
}

// Fallback derives an intent from a fixed keyword table. It never produces
// titles.
func Fallback(query string) Intent {
	text := strings.ToLower(query)
	return Intent{
		Include: applyRules(text, includeRules),
		Exclude: applyRules(text, excludeRules),
		Titles:  []string{},
	}
}

func applyRules(text string, rules []keywordRule) []string {
	out := []string{}
	for _, rule := range rules {
		for _, needle := range rule.needles {
			if strings.Contains(text, needle) {
				for _, tok := range rule.tokens {
					if !containsFold(out, tok) {
						out = append(out, tok)
					}
				}
				break
			}
		}
	}
	return out
}
