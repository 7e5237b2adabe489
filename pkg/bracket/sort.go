package bracket

import (
	"cmp"
	"math"
	"slices"
)

// SortMatches reorders the matches of every round after the first by the
// earliest position any of their entrants held in the previous round, with
// rounds flattened match by match. Revival and unseen entrants hold no
// position; matches made only of them keep their relative order at the end.
//
// The input is left untouched; entrant slices are shared with it.
func SortMatches(rounds []Round) []Round {
	sorted := make([]Round, len(rounds))
	positions := map[string]int{}

	for i, round := range rounds {
		matches := slices.Clone(round.Matches)

		slices.SortStableFunc(matches, func(a, b Match) int {
			return cmp.Compare(earliest(a, positions), earliest(b, positions))
		})

		sorted[i] = Round{Name: round.Name, Matches: matches}
		positions = flatten(matches)
	}

	return sorted
}

func earliest(match Match, positions map[string]int) int {
	best := math.MaxInt

	for _, entrant := range match.Entrants {
		pos, ok := positions[entrant.ID]
		if ok && !entrant.Revival && pos < best {
			best = pos
		}
	}

	return best
}

func flatten(matches []Match) map[string]int {
	positions := map[string]int{}
	count := 0

	for _, match := range matches {
		for _, entrant := range match.Entrants {
			positions[entrant.ID] = count
			count++
		}
	}

	return positions
}
