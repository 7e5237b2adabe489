package bracket

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Sumatoshi-tech/bracketorder/pkg/ordertree"
)

func match(ids ...string) Match {
	m := Match{}
	for _, id := range ids {
		m.Entrants = append(m.Entrants, Entrant{ID: id})
	}

	return m
}

func revival(m Match, ids ...string) Match {
	for i := range m.Entrants {
		for _, id := range ids {
			if m.Entrants[i].ID == id {
				m.Entrants[i].Revival = true
			}
		}
	}

	return m
}

func round(name string, matches ...Match) Round {
	return Round{Name: name, Matches: matches}
}

func handles(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		out = append(out, link.From+"->"+link.To)
	}

	return out
}

func TestTwoRoundBracket(t *testing.T) {
	t.Parallel()

	rec, err := Reconstruct([]Round{
		round("first", match("p1", "p2"), match("p3", "p4")),
		round("final", match("p2", "p3")),
	}, Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"r0m0->r1m0", "r0m1->r1m0"}, handles(rec.Links()))

	roots := rec.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "r0m0", roots[0].Handle())
	assert.Equal(t, "r0m1", roots[1].Handle())

	// Every pairwise comparison agrees with one strict total order.
	ids := []string{"p1", "p2", "p3", "p4"}
	for _, a := range ids {
		for _, b := range ids {
			ab, err := rec.Compare(a, b)
			require.NoError(t, err)

			ba, err := rec.Compare(b, a)
			require.NoError(t, err)

			assert.Equal(t, -ab, ba, "%s vs %s", a, b)

			if a == b {
				assert.Zero(t, ab)
			} else {
				assert.NotZero(t, ab)
			}

			for _, c := range ids {
				bc, _ := rec.Compare(b, c)
				ac, _ := rec.Compare(a, c)

				if ab < 0 && bc < 0 {
					assert.Negative(t, ac, "%s < %s < %s", a, b, c)
				}
			}
		}
	}

	assert.Equal(t, ids, rec.Order().Ordered())
	assert.Equal(t, []string{"first", "final"}, rec.Rounds())
}

func TestNewEntrantsKeepListingOrder(t *testing.T) {
	t.Parallel()

	rec, err := Reconstruct([]Round{
		round("", match("p1", "p2"), match("p3", "p4")),
		round("", match("x", "p2", "y", "z")),
		round("", match("y")),
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "x", "p2", "y", "z", "p3", "p4"}, rec.Order().Ordered())
	assert.Equal(t, []string{"r0m0->r1m0", "r1m0->r2m0"}, handles(rec.Links()))
	require.NoError(t, rec.Order().Verify())
}

func TestNewEntrantsFollowNearestPlacedNeighbor(t *testing.T) {
	t.Parallel()

	first := round("", match("p1", "p2"), match("p3", "p4"))

	tests := []struct {
		name  string
		match Match
		want  []string
	}{
		{"after a placed entrant", match("p2", "p3", "n"), []string{"p1", "p2", "p3", "n", "p4"}},
		{"before the anchor", match("n", "p1", "p2"), []string{"n", "p1", "p2", "p3", "p4"}},
		{"before a placed entrant", match("n", "p3", "p1"), []string{"p1", "p2", "n", "p3", "p4"}},
		{"between placed entrants", match("p1", "m", "p3", "n"), []string{"p1", "m", "p2", "p3", "n", "p4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, err := Reconstruct([]Round{first, round("", tt.match)}, Options{})
			require.NoError(t, err)

			assert.Equal(t, tt.want, rec.Order().Ordered())
			require.NoError(t, rec.Order().Verify())
		})
	}
}

func TestRevivalNeverAnchors(t *testing.T) {
	t.Parallel()

	// p1 is placed before p3 but comes back through a revival, so p3 anchors
	// and n is placed just before p3 instead of just after p1.
	rec, err := Reconstruct([]Round{
		round("", match("p1", "p2"), match("p3", "p4")),
		round("", revival(match("p1", "n", "p3"), "p1")),
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "n", "p3", "p4"}, rec.Order().Ordered())
	assert.Equal(t, []string{"r0m1->r1m0"}, handles(rec.Links()))
}

func TestAnchorIsEarliestPlacedEntrant(t *testing.T) {
	t.Parallel()

	// p3 is listed first but p2 is placed earlier, so p2 anchors the match.
	rec, err := Reconstruct([]Round{
		round("", match("p1", "p2"), match("p3", "p4")),
		round("", match("p3", "n", "p2")),
	}, Options{})
	require.NoError(t, err)

	order := rec.Order().Ordered()
	assert.Equal(t, []string{"p1", "n", "p2", "p3", "p4"}, order)

	links := handles(rec.Links())
	assert.Equal(t, []string{"r0m0->r1m0", "r0m1->r1m0"}, links)
}

func TestBrokenInvariant(t *testing.T) {
	t.Parallel()

	rec, err := Reconstruct([]Round{
		round("", match("p1", "p2")),
		round("", match("q1", "q2")),
	}, Options{})
	require.ErrorIs(t, err, ErrBrokenInvariant)

	var invariant *InvariantError
	require.ErrorAs(t, err, &invariant)
	assert.Equal(t, "q1", invariant.Entrant)
	assert.Equal(t, 1, invariant.Round)
	assert.Equal(t, 0, invariant.Match)

	// The failed pass stays failed.
	assert.ErrorIs(t, rec.AddRound(round("", match("p1"))), ErrBrokenInvariant)
	assert.Equal(t, err, rec.Err())
}

func TestEntrantSkippingARoundBreaksInvariant(t *testing.T) {
	t.Parallel()

	_, err := Reconstruct([]Round{
		round("", match("p1", "p2"), match("p3", "p4")),
		round("", match("p2")),
		round("", match("p3")),
	}, Options{})
	require.ErrorIs(t, err, ErrBrokenInvariant)
}

func TestEmptyMatch(t *testing.T) {
	t.Parallel()

	for _, rounds := range [][]Round{
		{round("", Match{})},
		{round("", match("a", "b")), round("", match("a"), Match{})},
	} {
		_, err := Reconstruct(rounds, Options{})
		require.ErrorIs(t, err, ErrEmptyMatch)

		var invariant *InvariantError
		require.ErrorAs(t, err, &invariant)
		assert.Empty(t, invariant.Entrant)
	}
}

func TestRevivalEntrants(t *testing.T) {
	t.Parallel()

	t.Run("skipped around an anchor", func(t *testing.T) {
		t.Parallel()

		rec, err := Reconstruct([]Round{
			round("", match("p1", "p2")),
			round("", revival(match("r", "p2", "s"), "r", "s")),
		}, Options{})
		require.NoError(t, err)

		assert.False(t, rec.Order().Contains("r"))
		assert.False(t, rec.Order().Contains("s"))
		assert.Equal(t, []string{"r0m0->r1m0"}, handles(rec.Links()))
	})

	t.Run("revival only match starts a tree", func(t *testing.T) {
		t.Parallel()

		rec, err := Reconstruct([]Round{
			round("", match("p1", "p2")),
			round("", match("p2"), revival(match("r1", "r2"), "r1", "r2")),
		}, Options{})
		require.NoError(t, err)

		roots := rec.Roots()
		require.Len(t, roots, 2)
		assert.Equal(t, "r1m1", roots[1].Handle())
		assert.Empty(t, roots[1].Children())
		assert.Equal(t, []string{"p1", "p2"}, rec.Order().Ordered())
	})

	t.Run("revival entrant is not linked", func(t *testing.T) {
		t.Parallel()

		rec, err := Reconstruct([]Round{
			round("", match("p1", "p2"), match("p3", "p4")),
			round("", revival(match("p1", "p3"), "p3")),
		}, Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"r0m0->r1m0"}, handles(rec.Links()))
	})
}

func TestPairsVisitEachMatchOnce(t *testing.T) {
	t.Parallel()

	rec, err := Reconstruct([]Round{
		round("", match("a", "b"), match("c", "d"), match("e", "f"), match("g", "h")),
		round("", match("b", "c"), match("e", "h")),
		round("", match("b", "h")),
	}, Options{})
	require.NoError(t, err)

	pairs := rec.Pairs()
	require.Len(t, pairs, 6)

	seen := map[string]bool{}
	for _, pair := range pairs {
		key := pair.Parent.Handle() + "->" + pair.Child.Handle()
		assert.False(t, seen[key], "duplicate edge %s", key)
		seen[key] = true
	}

	assert.True(t, seen["r1m0->r2m0"])
	assert.True(t, seen["r1m1->r2m0"])
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, rec.Order().Ordered())
}

func TestResult(t *testing.T) {
	t.Parallel()

	rounds := []Round{
		round("quarter", match("p1", "p2"), match("p3", "p4")),
		round("semi", match("p2", "p3")),
	}
	rounds[1].Matches[0].Entrants[0].Winner = true

	rec, err := Reconstruct(rounds, Options{})
	require.NoError(t, err)

	result := rec.Result()
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, result.Order)
	assert.Equal(t, map[string]int{"p1": 0, "p2": 1, "p3": 2, "p4": 3}, result.Ranks)
	require.Len(t, result.Rounds, 2)
	assert.Equal(t, "quarter", result.Rounds[0].Name)
	assert.True(t, result.Rounds[0].Matches[0].Root)
	assert.Equal(t, []string{"r1m0"}, result.Rounds[0].Matches[1].Children)
	assert.True(t, result.Rounds[1].Matches[0].Entrants[0].Winner)
	assert.Len(t, result.Links, 2)
}

func TestLoggerReceivesRounds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Reconstruct([]Round{
		round("opening", match("a", "b")),
	}, Options{Logger: logger, Arena: ordertree.NewArena()})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "bracket round reconstructed")
	assert.Contains(t, buf.String(), "name=opening")
	assert.Contains(t, buf.String(), "placed=2")
}

// TestSingleEliminationRapid plays random single-elimination brackets and
// checks that the first round listing survives as the entrant order and that
// every later match is fed by exactly two earlier ones.
func TestSingleEliminationRapid(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		depth := rapid.IntRange(1, 6).Draw(t, "depth")

		alive := make([]string, 1<<depth)
		for i := range alive {
			alive[i] = fmt.Sprintf("p%02d", i)
		}

		listing := append([]string(nil), alive...)

		var rounds []Round

		for len(alive) > 1 {
			var (
				matches []Match
				winners []string
			)

			for i := 0; i < len(alive); i += 2 {
				m := match(alive[i], alive[i+1])
				won := rapid.IntRange(0, 1).Draw(t, "winner")
				m.Entrants[won].Winner = true

				matches = append(matches, m)
				winners = append(winners, alive[i+won])
			}

			rounds = append(rounds, Round{Matches: matches})
			alive = winners
		}

		rounds = append(rounds, round("", match(alive[0])))

		rec, err := Reconstruct(rounds, Options{})
		require.NoError(t, err)
		require.Equal(t, listing, rec.Order().Ordered())
		require.Len(t, rec.Roots(), len(rounds[0].Matches))

		incoming := map[string]int{}
		for _, pair := range rec.Pairs() {
			incoming[pair.Child.Handle()]++
		}

		for _, node := range rec.Matches() {
			switch {
			case node.Round == 0:
				require.Zero(t, incoming[node.Handle()])
			case node.Round == len(rounds)-1:
				require.Equal(t, 1, incoming[node.Handle()])
			default:
				require.Equal(t, 2, incoming[node.Handle()], node.String())
			}
		}
	})
}

func TestCompareAbsentEntrant(t *testing.T) {
	t.Parallel()

	rec := NewReconstructor(Options{})
	require.NoError(t, rec.AddRound(round("", match("a", "b", "c"))))

	cmp, err := rec.Compare("a", "missing")
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)
	assert.False(t, errors.Is(err, ordertree.ErrStructuralCorruption))
}
