// Package suggest ranks "did you mean" candidates.
//
// One ranking function serves every suggestion path: verb names, argument
// names, enumeration values, session symbols and reference codes.
package suggest

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxDistance is the largest edit distance still considered a near miss.
const MaxDistance = 3

// DefaultLimit is the recommended number of suggestions to show.
const DefaultLimit = 3

type candidate struct {
	name     string
	distance int
	contains bool
}

// Rank returns up to limit candidates similar to query.
//
// A candidate qualifies when its edit distance to query is at most
// MaxDistance or when either string contains the other. Comparison is done
// on NFC-normalized, case-folded, space-trimmed forms. Results are ordered
// by distance, then containment, then name, so output is deterministic.
// A limit <= 0 returns every qualifying candidate.
func Rank(query string, candidates []string, limit int) []string {
	q := fold(query)
	if q == "" {
		return nil
	}

	seen := make(map[string]bool, len(candidates))
	var ranked []candidate
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true

		f := fold(c)
		d := Distance(q, f)
		contains := f != "" && (strings.Contains(f, q) || strings.Contains(q, f))
		if d > MaxDistance && !contains {
			continue
		}
		ranked = append(ranked, candidate{name: c, distance: d, contains: contains})
	}

	slices.SortFunc(ranked, func(a, b candidate) int {
		if a.distance != b.distance {
			return a.distance - b.distance
		}
		if a.contains != b.contains {
			if a.contains {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.name
	}
	return out
}

// Distance is the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
