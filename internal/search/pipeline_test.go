package search

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JustMelih/GameVault/internal/catalog"
	"github.com/JustMelih/GameVault/internal/intent"
)

func TestBuildQueries(t *testing.T) {
	in := intent.Intent{Include: []string{"police"}, Titles: []string{" Need for Speed ", "need for speed", "Burnout", "Driver"}}

	main, hints := BuildQueries("a game where we play as a police officer", in, false)
	assert.Equal(t, "police officer police", main)
	assert.Equal(t, []string{"Need for Speed", "Burnout"}, hints)

	main, hints = BuildQueries("police chase", intent.Intent{Include: []string{"police", "chase"}}, true)
	assert.Equal(t, "police chase police chase", main)
	assert.NotNil(t, hints)
	assert.Empty(t, hints)
}

func TestHintQueries(t *testing.T) {
	assert.Equal(t, []string{"Skyrim", "Oblivion"}, HintQueries([]string{" Skyrim ", "skyrim", "", "Oblivion", "Morrowind"}, 2))
	assert.Empty(t, HintQueries(nil, 2))
}

func TestMerge_Dedupe(t *testing.T) {
	main := []catalog.Entry{
		{ID: 1, Name: "Dreams"},
		{ID: 3, Name: "Hades"},
	}
	hint := []catalog.Entry{
		{ID: 2, Name: "Dreams."},
		{ID: 3, Name: "Hades (hint copy)"},
		{ID: 4, Name: "  hades! "},
		{ID: 5, Name: "Celeste"},
	}

	got := Merge(main, hint)
	ids := make([]int, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int{1, 3, 5}, ids)
	assert.Equal(t, "Hades", got[1].Name, "main results win")
}

func TestMerge_NoHints(t *testing.T) {
	got := Merge([]catalog.Entry{{ID: 1, Name: "Celeste"}})
	assert.Len(t, got, 1)
	assert.NotNil(t, Merge(nil))
}

func TestLooksLikeSpam(t *testing.T) {
	tests := map[string]bool{
		"ab":                            true,
		"  ab  ":                        true,
		"Coin Coin Coin Tap":            true,
		"W$$$!!":                        true,
		"Tap tap TAP":                   true,
		"Half-Life 2":                   false,
		"2048":                          false,
		"The Witcher 3":                 false,
		"Ori and the Will of the Wisps": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, LooksLikeSpam(name), name)
	}
}

func TestExclude(t *testing.T) {
	entries := []catalog.Entry{
		{ID: 1, Name: "Magicka"},
		{ID: 2, Name: "Mage Arena"},
		{ID: 3, Name: "Dark Souls", Genres: []string{"Action", "RPG"}},
		{ID: 4, Name: "Wizard of Legend"},
		{ID: 5, Name: "Sorcerer King"},
		{ID: 6, Name: "Kingdom Come: Deliverance", Genres: []string{"RPG"}},
		{ID: 7, Name: "Arcane Quest", Genres: []string{"Magic"}},
	}

	got := Exclude(entries, []string{"Magic"})
	assert.Equal(t, []int{3, 6}, entryIDs(got))

	got = Exclude(entries, []string{"wizard"})
	assert.Equal(t, []int{3, 6}, entryIDs(got))

	got = Exclude(entries, []string{"kingdom"})
	assert.Equal(t, []int{1, 2, 3, 4, 5, 7}, entryIDs(got))

	got = Exclude(entries, nil)
	assert.Same(t, &entries[0], &got[0])

	got = Exclude(entries, []string{"  "})
	assert.Len(t, got, len(entries))
}

func TestExcludeSeq_StopsEarly(t *testing.T) {
	entries := []catalog.Entry{{ID: 1, Name: "Doom"}, {ID: 2, Name: "Quake"}, {ID: 3, Name: "Heretic"}}
	var first []int
	for e := range ExcludeSeq(slices.Values(entries), []string{"quake"}) {
		first = append(first, e.ID)
		break
	}
	assert.Equal(t, []int{1}, first)
}

func TestFranchiseKey(t *testing.T) {
	tests := map[string]string{
		"Total War: Warhammer III":        "total war",
		"Total War: Warhammer II":         "total war",
		"Call of Duty: Modern Warfare II": "call of duty",
		"Battlefield 2042":                "battlefield",
		"Dark Souls III":                  "dark souls",
		"DARK SOULS: REMASTERED":          "dark souls",
		"FIFA 23":                         "fifa",
		"Cities: Skylines II":             "cities",
		"Hitman – Definitive Edition":     "hitman",
		"Doom Eternal":                    "doom eternal",
		"Grand Theft Auto V":              "grand theft auto",
		"Resident Evil 4 - Gold Edition":  "resident evil 4",
	}
	for name, want := range tests {
		assert.Equal(t, want, FranchiseKey(name), name)
	}
}

func TestExplain(t *testing.T) {
	e := catalog.Entry{
		Name:      "The Witcher 3: Wild Hunt",
		Released:  "2015-05-18",
		Genres:    []string{"Action", "RPG", "Adventure"},
		Platforms: []string{"PC", "PlayStation", "Xbox"},
	}

	assert.Equal(t, []string{
		"Matched: rpg, action",
		"Genres: Action, RPG",
		"Platforms: PC, PlayStation",
	}, Explain(e, []string{"rpg", "dragon", "action", "adventure"}))

	assert.Equal(t, []string{
		"Genres: Action, RPG",
		"Platforms: PC, PlayStation",
		"Release: 2015-05-18",
	}, Explain(e, nil))

	assert.Empty(t, Explain(catalog.Entry{Name: "Bare"}, nil))
	assert.NotNil(t, Explain(catalog.Entry{Name: "Bare"}, nil))
}

func entryIDs(entries []catalog.Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
