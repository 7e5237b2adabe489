package ordertree

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// placement mirrors a tree operation on a plain slice, the reference model.
func placement(model []int, id int, dir Direction, anchor int) []int {
	pos := slices.Index(model, anchor)
	if dir == Larger {
		pos++
	}

	return slices.Insert(model, pos, id)
}

// TestRandomPlacementsRapid drives random sequences of 10-400 insertions and
// checks the red-black properties after every single one, then checks the
// resulting order and the comparison laws against the slice model.
func TestRandomPlacementsRapid(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(10, 400).Draw(t, "count")
		tree := New[int]()

		var model []int

		for id := range count {
			if len(model) == 0 || rapid.IntRange(0, 3).Draw(t, "append") == 0 {
				require.NoError(t, tree.InsertAsMaximum(id))

				model = append(model, id)
			} else {
				anchor := rapid.SampledFrom(model).Draw(t, "anchor")
				dir := Direction(rapid.IntRange(0, 1).Draw(t, "dir"))
				require.NoError(t, tree.InsertRelative(id, dir, anchor))

				model = placement(model, id, dir, anchor)
			}

			require.NoError(t, tree.Verify(), "after inserting %d", id)
		}

		require.Equal(t, model, tree.Ordered())

		ranks := tree.RankOrder()
		for rank, id := range model {
			require.Equal(t, rank, ranks[id])
		}

		require.Equal(t, ranks, tree.RankOrder())

		for range 20 {
			a := rapid.SampledFrom(model).Draw(t, "a")
			b := rapid.SampledFrom(model).Draw(t, "b")

			got := tree.Compare(a, b)
			require.Equal(t, -tree.Compare(b, a), got)

			switch {
			case a == b:
				require.Equal(t, 0, got)
			case ranks[a] < ranks[b]:
				require.Equal(t, -1, got)
			default:
				require.Equal(t, 1, got)
			}
		}
	})
}

// TestHibernatedTreeKeepsOrderRapid hibernates the arena at random points and
// checks that the next operation transparently boots it.
func TestHibernatedTreeKeepsOrderRapid(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(10, 120).Draw(t, "count")
		tree := New[int]()
		model := []int{}

		for id := range count {
			if len(model) == 0 {
				require.NoError(t, tree.InsertAsMaximum(id))

				model = append(model, id)

				continue
			}

			anchor := rapid.SampledFrom(model).Draw(t, "anchor")
			dir := Direction(rapid.IntRange(0, 1).Draw(t, "dir"))
			require.NoError(t, tree.InsertRelative(id, dir, anchor))

			model = placement(model, id, dir, anchor)

			if rapid.Bool().Draw(t, "hibernate") {
				require.NoError(t, tree.Hibernate())
				require.True(t, tree.Arena().Hibernated())
			}
		}

		require.Equal(t, model, tree.Ordered())
		require.NoError(t, tree.Verify())
	})
}
