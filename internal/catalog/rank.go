package catalog

import (
	"cmp"
	"slices"
	"strconv"
)

// DisplayItem is a ranked, labeled search result ready for presentation.
type DisplayItem struct {
	Label   string
	Value   string
	Group   string
	Payload Result
}

// MediaType returns the media type of the underlying result.
func (d DisplayItem) MediaType() MediaType {
	return d.Payload.MediaType()
}

type rankedEntry struct {
	item  DisplayItem
	stats Stats
}

type resultKey struct {
	mediaType MediaType
	id        int64
}

// Rank filters results down to movies and TV shows and orders them for display.
//
// Ordering is by media type ascending ("movie" before "tv"), then popularity,
// vote count and vote average, each descending. The sort is stable, so ties
// keep their input order. A result repeated under the same media type and id
// is kept once, at its first position. Results without artwork are kept.
//
// Rank never returns nil.
func Rank(results []Result) []DisplayItem {
	entries := make([]rankedEntry, 0, len(results))
	seen := make(map[resultKey]struct{}, len(results))

	for _, r := range results {
		stats, ok := StatsOf(r)
		if !ok {
			continue
		}
		key := resultKey{mediaType: r.MediaType(), id: r.ResultID()}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		entries = append(entries, rankedEntry{
			item: DisplayItem{
				Label:   r.DisplayName(),
				Value:   strconv.FormatInt(r.ResultID(), 10),
				Group:   r.MediaType().Group(),
				Payload: r,
			},
			stats: stats,
		})
	}

	slices.SortStableFunc(entries, compareEntries)

	items := make([]DisplayItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	return items
}

func compareEntries(a, b rankedEntry) int {
	if c := cmp.Compare(a.item.Payload.MediaType(), b.item.Payload.MediaType()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.stats.Popularity, a.stats.Popularity); c != 0 {
		return c
	}
	if c := cmp.Compare(b.stats.VoteCount, a.stats.VoteCount); c != 0 {
		return c
	}
	return cmp.Compare(b.stats.VoteAverage, a.stats.VoteAverage)
}

// Payloads returns the underlying results of items, in order.
func Payloads(items []DisplayItem) []Result {
	out := make([]Result, len(items))
	for i, item := range items {
		out[i] = item.Payload
	}
	return out
}
