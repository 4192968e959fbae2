package graph

import (
	"fmt"
	"sort"
	"strings"
)

const maxSuggestions = 5

// NotFoundError reports a requested ref id that has no node, together with
// up to five ranked alternatives the caller can act on.
type NotFoundError struct {
	RefID       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("node %q not found", e.RefID)
	}
	return fmt.Sprintf("node %q not found (did you mean: %s)", e.RefID, strings.Join(e.Suggestions, ", "))
}

// NewNotFoundError builds a NotFoundError for refID, ranking candidates by
// case-insensitive prefix match first, then by edit distance.
func NewNotFoundError(refID string, known []string) *NotFoundError {
	return &NotFoundError{RefID: refID, Suggestions: Suggest(refID, known)}
}

// Suggest ranks known ref ids as alternatives for an unknown one. Prefix
// matches come first (shortest first, so the closest completion wins), the
// remainder are ordered by Levenshtein distance. Candidates further than
// half the query length in edits are noise and are cut.
func Suggest(refID string, known []string) []string {
	query := strings.ToLower(refID)

	var prefixed []string
	type scored struct {
		id   string
		dist int
	}
	var fuzzy []scored

	seen := make(map[string]bool, len(known))
	for _, id := range known {
		if id == refID || seen[id] {
			continue
		}
		seen[id] = true

		lower := strings.ToLower(id)
		if strings.HasPrefix(lower, query) {
			prefixed = append(prefixed, id)
			continue
		}
		if d := levenshtein(query, lower); d <= maxDistance(query) {
			fuzzy = append(fuzzy, scored{id: id, dist: d})
		}
	}

	sort.Slice(prefixed, func(i, j int) bool {
		if len(prefixed[i]) != len(prefixed[j]) {
			return len(prefixed[i]) < len(prefixed[j])
		}
		return prefixed[i] < prefixed[j]
	})
	sort.Slice(fuzzy, func(i, j int) bool {
		if fuzzy[i].dist != fuzzy[j].dist {
			return fuzzy[i].dist < fuzzy[j].dist
		}
		return fuzzy[i].id < fuzzy[j].id
	})

	out := prefixed
	for _, s := range fuzzy {
		out = append(out, s.id)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// maxDistance bounds how far a fuzzy candidate may drift from the query.
func maxDistance(query string) int {
	d := len(query) / 2
	if d < 2 {
		d = 2
	}
	return d
}

// levenshtein computes the edit distance between two strings using the
// two-row dynamic programming form.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
