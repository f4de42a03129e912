package search

import "github.com/JustMelih/GameVault/internal/catalog"

// Select builds the final list from ranked entries. It alternates between
// title-matched and general entries, starting with title matches, allowing at
// most franchiseCap entries per franchise key. When both buckets are
// exhausted or capped it backfills from the rank-ordered concatenation of
// both buckets, ignoring the cap.
func Select(ranked []Ranked, limit, franchiseCap int) []catalog.Entry {
	if limit <= 0 {
		return []catalog.Entry{}
	}
	if franchiseCap <= 0 {
		franchiseCap = 1
	}

	var a, b []Ranked
	for _, r := range ranked {
		if r.TitleMatch {
			a = append(a, r)
		} else {
			b = append(b, r)
		}
	}
	SortRanked(a)
	SortRanked(b)

	out := make([]catalog.Entry, 0, limit)
	chosen := make(map[int]struct{}, limit)
	perFranchise := make(map[string]int)

	bucketA := &cursor{items: a}
	bucketB := &cursor{items: b}

	take := func(c *cursor) bool {
		// Capped entries are skipped for good here; only backfill revisits them.
		r, ok := c.nextUncapped(perFranchise, franchiseCap)
		if !ok {
			return false
		}
		out = append(out, r.Entry)
		chosen[r.Entry.ID] = struct{}{}
		perFranchise[r.FranchiseKey]++
		return true
	}

	preferA := true
	for len(out) < limit {
		first, second := bucketA, bucketB
		if !preferA {
			first, second = bucketB, bucketA
		}
		if !take(first) && !take(second) {
			break
		}
		preferA = !preferA
	}

	if len(out) < limit {
		for _, r := range append(a, b...) {
			if len(out) >= limit {
				break
			}
			if _, dup := chosen[r.Entry.ID]; dup {
				continue
			}
			out = append(out, r.Entry)
			chosen[r.Entry.ID] = struct{}{}
		}
	}

	return out
}

type cursor struct {
	items []Ranked
	pos   int
}

// nextUncapped advances past entries whose franchise is full and returns the
// first one that still fits.
func (c *cursor) nextUncapped(counts map[string]int, limit int) (Ranked, bool) {
	for c.pos < len(c.items) {
		r := c.items[c.pos]
		c.pos++
		if counts[r.FranchiseKey] < limit {
			return r, true
		}
	}
	return Ranked{}, false
}
