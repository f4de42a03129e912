package search

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustMelih/GameVault/internal/catalog"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func TestTitleHit(t *testing.T) {
	titles := []string{"Hades", "Celeste"}
	assert.Equal(t, 1.0, titleHit("hades", titles))
	assert.Equal(t, 0.85, titleHit("hades ii", titles))
	assert.Equal(t, 0.70, titleHit("the art of celeste", titles))
	assert.Equal(t, 0.0, titleHit("doom", titles))
	assert.Equal(t, 0.0, titleHit("doom", nil))
	assert.True(t, MatchesTitle("  HADES II ", titles))
}

func TestIncludeOverlap(t *testing.T) {
	hay := haystack(catalog.Entry{Name: "The Witcher 3", Genres: []string{"Action", "RPG"}, Platforms: []string{"PC"}})
	// "pc" is too short to count.
	assert.Equal(t, 0.5, includeOverlap(hay, []string{"rpg", "open world", "pc"}))
	assert.Equal(t, 0.0, includeOverlap(hay, nil))
}

func TestPhraseOverlap(t *testing.T) {
	tokens := phraseTokens("police chase game, car-chase")
	assert.Equal(t, []string{"police", "chase", "car", "chase"}, tokens)

	assert.Equal(t, 0.5, phraseOverlap("police chase unit", tokens))
	assert.Equal(t, 1.0, phraseOverlap("police chase car chase", tokens))
	assert.Equal(t, 0.0, phraseOverlap("chase police", tokens))
}

func TestRecency(t *testing.T) {
	assert.InDelta(t, 0.35, recency(catalog.Entry{Released: "2025-06-01"}, testNow), 1e-9)
	assert.InDelta(t, 0.35*math.Exp(-1), recency(catalog.Entry{Released: "2019-06-03"}, testNow), 1e-3)
	assert.Equal(t, 0.0, recency(catalog.Entry{Released: "tba"}, testNow))
	// Future dates do not exceed the maximum.
	assert.InDelta(t, 0.35, recency(catalog.Entry{Released: "2026-01-01"}, testNow), 1e-9)
}

func TestPopularity(t *testing.T) {
	assert.InDelta(t, 0.7, popularity(catalog.Entry{RatingsCount: 99, Metacritic: intPtr(95)}), 1e-9)
	assert.InDelta(t, 0.2, popularity(catalog.Entry{RatingsCount: 9}), 1e-9)
	assert.Equal(t, 0.0, popularity(catalog.Entry{Metacritic: intPtr(50)}))
	assert.InDelta(t, 0.1, popularity(catalog.Entry{Metacritic: intPtr(70)}), 1e-9)
}

func TestPlatformSignal(t *testing.T) {
	tests := []struct {
		platforms []string
		want      float64
	}{
		{[]string{"Web"}, -0.9},
		{[]string{"PC", "Web"}, -0.9},
		{[]string{"iOS", "Android"}, -0.5},
		{[]string{"Android", "PlayStation"}, 0.2},
		{[]string{"PC"}, 0.2},
		{[]string{"Nintendo"}, 0.2},
		{[]string{"Linux"}, -0.2},
		{nil, -0.2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, platformSignal(tt.platforms), "%v", tt.platforms)
	}
}

func TestGenericPenalty(t *testing.T) {
	assert.InDelta(t, -0.9, genericPenalty("Ico"), 1e-9)
	assert.InDelta(t, -0.3, genericPenalty("Hades"), 1e-9)
	assert.Equal(t, 0.0, genericPenalty("Celeste"))
	assert.Equal(t, 0.0, genericPenalty("Dead Space"))
}

func TestTopicMismatch(t *testing.T) {
	idle := catalog.Entry{Name: "Idle Miner Tycoon", Genres: []string{"Simulation"}}
	assert.Equal(t, -0.4, topicMismatch(idle, nil))
	assert.Equal(t, 0.0, topicMismatch(idle, []string{"idle"}))
	assert.Equal(t, -0.4, topicMismatch(idle, []string{"mining"}))

	gacha := catalog.Entry{Name: "Star Heroes", Genres: []string{"Gacha", "RPG"}}
	assert.Equal(t, -0.4, topicMismatch(gacha, []string{"rpg"}))
	assert.Equal(t, 0.0, topicMismatch(catalog.Entry{Name: "Celeste"}, nil))
}

func TestFranchiseTable_Boost(t *testing.T) {
	candidates := []catalog.Entry{
		{ID: 1, Name: "Total War: Warhammer III", Released: "2022-02-17"},
		{ID: 2, Name: "Total War: Warhammer II", Released: "2017-09-28"},
		{ID: 3, Name: "Total War: Three Kingdoms", Released: "2021-05-23"},
		{ID: 4, Name: "Total War: Rome", Released: "2020-01-01"},
		{ID: 5, Name: "Hades", Released: ""},
	}
	table := BuildFranchiseTable(candidates)
	assert.Equal(t, 2022, table["total war"])

	assert.Equal(t, 0.35, table.Boost(candidates[0]))
	assert.Equal(t, 0.0, table.Boost(candidates[1]))
	assert.Equal(t, 0.15, table.Boost(candidates[2]))
	assert.Equal(t, 0.05, table.Boost(candidates[3]))
	assert.Equal(t, 0.0, table.Boost(candidates[4]))

	// Unknown franchise.
	assert.Equal(t, 0.0, table.Boost(catalog.Entry{Name: "Celeste", Released: "2018-01-25"}))
}

func TestRankKey(t *testing.T) {
	assert.Equal(t, 876, RankKey(1.234))
	assert.Equal(t, 1050, RankKey(-0.5))
	assert.Equal(t, 1000, RankKey(0))
	// Near-equal scores share a key.
	assert.Equal(t, RankKey(1.2341), RankKey(1.2349))
}

func TestRank_OrderAndTieBreak(t *testing.T) {
	entries := []catalog.Entry{
		{ID: 1, Name: "beta", Platforms: []string{"PC"}},
		{ID: 2, Name: "Alpha", Platforms: []string{"PC"}},
		{ID: 3, Name: "Hades", Released: "2020-09-17", Platforms: []string{"PC"}, RatingsCount: 5000, Metacritic: intPtr(93)},
	}
	rc := NewRankContext([]string{"roguelike"}, []string{"Hades"}, "hades roguelike", entries, testNow)
	ranked := rc.Rank(entries)
	require.Len(t, ranked, 3)

	assert.Equal(t, "Hades", ranked[0].Entry.Name)
	assert.True(t, ranked[0].TitleMatch)
	assert.Equal(t, "hades", ranked[0].FranchiseKey)

	// Equal scores fall back to case-insensitive name order.
	assert.Equal(t, ranked[1].Key, ranked[2].Key)
	assert.Equal(t, "Alpha", ranked[1].Entry.Name)
	assert.Equal(t, "beta", ranked[2].Entry.Name)
}

func TestSignals_Total(t *testing.T) {
	s := Signals{Title: 1, Include: 1, Phrase: 1, Recency: 1, Popularity: 1, FranchiseBoost: 0.35, Platform: 0.2, Generic: -0.3, Mismatch: -0.4}
	assert.InDelta(t, 1.30+1.05+0.70+0.30+0.25+0.35+0.2-0.3-0.4, s.Total(), 1e-9)
}
