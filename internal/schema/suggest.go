package schema

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// MaxSuggestions caps Suggest results.
const MaxSuggestions = 5

// Suggest returns up to limit entry ids close to id, nearest first.
// Matching is case-insensitive; ties keep document order. Ids containing id
// as a substring always qualify.
func (r *Registry) Suggest(id string, limit int) []string {
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}
	want := strings.ToLower(strings.TrimSpace(id))
	if want == "" {
		return nil
	}
	threshold := max(2, len(want)/2)

	type candidate struct {
		id   string
		dist int
	}
	var cands []candidate
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		have := strings.ToLower(pair.Key)
		dist := levenshtein.ComputeDistance(want, have)
		if strings.Contains(have, want) {
			dist = min(dist, 1)
		}
		if dist <= threshold {
			cands = append(cands, candidate{id: pair.Key, dist: dist})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.id
	}
	return out
}
