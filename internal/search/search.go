// Package search ranks catalog entries against a free-text query. Matching
// is fuzzy and accent/case-insensitive so "tnt" finds "TNT Sports HD" and
// "cafe" finds "Café".
package search

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/strix/internal/domain"
)

// Match is one search hit, best matches first after ranking.
type Match struct {
	Entry    domain.ListEntry
	Distance int // Levenshtein distance from the query, lower is better
}

// Find returns entries whose names fuzzy-match the query, ranked best
// first. An empty query matches nothing.
func Find(query string, entries []domain.ListEntry) []Match {
	if query == "" || len(entries) == 0 {
		return nil
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.GetName()
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	matches := make([]Match, 0, len(ranks))
	for _, r := range ranks {
		matches = append(matches, Match{
			Entry:    entries[r.OriginalIndex],
			Distance: r.Distance,
		})
	}
	return matches
}
