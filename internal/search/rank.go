package search

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JustMelih/GameVault/internal/catalog"
)

// Signal weights.
const (
	weightTitle      = 1.30
	weightInclude    = 1.05
	weightPhrase     = 0.70
	weightRecency    = 0.30
	weightPopularity = 0.25
)

var nicheTopics = []string{"dating sim", "idle", "clicker", "gacha"}

var phraseFillers = map[string]struct{}{"game": {}, "play": {}, "where": {}}

const phraseSeparators = " ,.:;/\\-_"

// Signals is the per-entry breakdown of a score.
type Signals struct {
	Title          float64
	Include        float64
	Phrase         float64
	Recency        float64
	Popularity     float64
	FranchiseBoost float64
	Platform       float64
	Generic        float64
	Mismatch       float64
}

// Total is the composite score; higher is better.
func (s Signals) Total() float64 {
	return weightTitle*s.Title +
		weightInclude*s.Include +
		weightPhrase*s.Phrase +
		weightRecency*s.Recency +
		weightPopularity*s.Popularity +
		s.FranchiseBoost + s.Platform + s.Generic + s.Mismatch
}

// FranchiseTable maps a franchise key to the newest release year seen for
// it in a candidate set.
type FranchiseTable map[string]int

// BuildFranchiseTable scans the full candidate set once. Scores depend on
// it, so it must be rebuilt whenever the set changes.
func BuildFranchiseTable(candidates []catalog.Entry) FranchiseTable {
	t := make(FranchiseTable, len(candidates))
	for _, e := range candidates {
		key := FranchiseKey(e.Name)
		if y := e.Year(); y > t[key] {
			t[key] = y
		} else if _, ok := t[key]; !ok {
			t[key] = 0
		}
	}
	return t
}

// Boost rewards the newest entries within their own franchise.
func (t FranchiseTable) Boost(e catalog.Entry) float64 {
	latest, ok := t[FranchiseKey(e.Name)]
	y := e.Year()
	if !ok || latest <= 0 || y <= 0 {
		return 0
	}
	switch latest - y {
	case 0:
		return 0.35
	case 1:
		return 0.15
	case 2:
		return 0.05
	default:
		return 0
	}
}

// RankContext holds everything a score depends on besides the entry.
type RankContext struct {
	Include    []string
	Titles     []string
	Query      string
	Franchises FranchiseTable
	Now        time.Time

	phraseTokens []string
}

// NewRankContext builds the context for scoring. candidates must be the full
// set the franchise boost is relative to.
func NewRankContext(include, titles []string, query string, candidates []catalog.Entry, now time.Time) *RankContext {
	return &RankContext{
		Include:      include,
		Titles:       titles,
		Query:        query,
		Franchises:   BuildFranchiseTable(candidates),
		Now:          now,
		phraseTokens: phraseTokens(query),
	}
}

// Ranked is a scored entry.
type Ranked struct {
	Entry        catalog.Entry
	Score        float64
	Key          int
	FranchiseKey string
	TitleMatch   bool
}

// Score computes the composite relevance score of e.
func (rc *RankContext) Score(e catalog.Entry) float64 {
	return rc.Signals(e).Total()
}

// Signals computes each scoring signal of e.
func (rc *RankContext) Signals(e catalog.Entry) Signals {
	name := strings.TrimSpace(e.Name)
	nameL := strings.ToLower(name)

	return Signals{
		Title:          titleHit(nameL, rc.Titles),
		Include:        includeOverlap(haystack(e), rc.Include),
		Phrase:         phraseOverlap(nameL, rc.phraseTokens),
		Recency:        recency(e, rc.Now),
		Popularity:     popularity(e),
		FranchiseBoost: rc.Franchises.Boost(e),
		Platform:       platformSignal(e.Platforms),
		Generic:        genericPenalty(name),
		Mismatch:       topicMismatch(e, rc.Include),
	}
}

// Rank scores and sorts entries by rank key, then case-insensitive name.
func (rc *RankContext) Rank(entries []catalog.Entry) []Ranked {
	out := make([]Ranked, 0, len(entries))
	for _, e := range entries {
		score := rc.Score(e)
		out = append(out, Ranked{
			Entry:        e,
			Score:        score,
			Key:          RankKey(score),
			FranchiseKey: FranchiseKey(e.Name),
			TitleMatch:   MatchesTitle(e.Name, rc.Titles),
		})
	}
	SortRanked(out)
	return out
}

// RankKey maps a score to an ordering key; smaller ranks first. Scores that
// differ by less than 0.01 can share a key.
func RankKey(score float64) int {
	return int(1000 - score*100)
}

// SortRanked orders by rank key, then case-insensitive name, then id.
func SortRanked(items []Ranked) {
	slices.SortStableFunc(items, func(a, b Ranked) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		if c := strings.Compare(strings.ToLower(a.Entry.Name), strings.ToLower(b.Entry.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.ID, b.Entry.ID)
	})
}

// MatchesTitle reports whether name equals, starts with or contains any title,
// case-insensitively.
func MatchesTitle(name string, titles []string) bool {
	return titleHit(strings.ToLower(strings.TrimSpace(name)), titles) > 0
}

func titleHit(nameL string, titles []string) float64 {
	best := 0.0
	for _, t := range titles {
		tt := strings.ToLower(strings.TrimSpace(t))
		if tt == "" {
			continue
		}
		switch {
		case nameL == tt:
			return 1.0
		case strings.HasPrefix(nameL, tt):
			best = math.Max(best, 0.85)
		case strings.Contains(nameL, tt):
			best = math.Max(best, 0.70)
		}
	}
	return best
}

func includeOverlap(hay string, include []string) float64 {
	total, hits := 0, 0
	for _, tok := range include {
		if utf8.RuneCountInString(tok) < 3 {
			continue
		}
		total++
		if strings.Contains(hay, strings.ToLower(tok)) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func phraseTokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return strings.ContainsRune(phraseSeparators, r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, filler := phraseFillers[f]; filler || utf8.RuneCountInString(f) < 3 {
			continue
		}
		out = append(out, f)
	}
	return out
}

func phraseOverlap(nameL string, tokens []string) float64 {
	score := 0.0
	for i := 0; i+1 < len(tokens); i++ {
		if strings.Contains(nameL, tokens[i]+" "+tokens[i+1]) {
			score += 0.5
		}
	}
	return math.Min(1.0, score)
}

func recency(e catalog.Entry, now time.Time) float64 {
	released, ok := e.ReleaseDate()
	if !ok {
		return 0
	}
	ageYears := math.Max(0, now.Sub(released).Hours()/24/365)
	return 0.35 * math.Exp(-ageYears/6)
}

func popularity(e catalog.Entry) float64 {
	score := 0.0
	if e.RatingsCount > 0 {
		score += math.Min(0.4, math.Log10(float64(e.RatingsCount)+1)*0.2)
	}
	if e.Metacritic != nil {
		score += math.Max(0, math.Min(0.3, float64(*e.Metacritic-60)/100))
	}
	return score
}

func platformSignal(platforms []string) float64 {
	has := func(needles ...string) bool {
		for _, p := range platforms {
			pl := strings.ToLower(p)
			for _, n := range needles {
				if strings.Contains(pl, n) {
					return true
				}
			}
		}
		return false
	}

	pcOrConsole := has("pc", "playstation", "xbox", "nintendo")
	switch {
	case has("web", "browser"):
		return -0.9
	case !pcOrConsole && has("android", "ios"):
		return -0.5
	case pcOrConsole:
		return 0.2
	default:
		return -0.2
	}
}

func genericPenalty(name string) float64 {
	n := utf8.RuneCountInString(name)
	penalty := 0.0
	if n <= 3 {
		penalty -= 0.6
	}
	if len(strings.Fields(name)) == 1 && n < 6 {
		penalty -= 0.3
	}
	return penalty
}

func topicMismatch(e catalog.Entry, include []string) float64 {
	hay := strings.ToLower(e.Name + " " + strings.Join(e.Genres, " "))

	present := false
	for _, n := range nicheTopics {
		if strings.Contains(hay, n) {
			present = true
			break
		}
	}
	if !present {
		return 0
	}

	for _, inc := range include {
		inc = strings.ToLower(strings.TrimSpace(inc))
		if inc == "" {
			continue
		}
		for _, n := range nicheTopics {
			if strings.Contains(n, inc) {
				return 0
			}
		}
	}
	return -0.4
}
