package ordertree

// arrival records how an upward walk reached a node: from its smaller
// subtree, from its larger subtree, or by starting there.
type arrival uint8

const (
	fromSelf arrival = iota
	fromSmaller
	fromLarger
)

// walk is one side of the lowest-common-ancestor search.
type walk struct {
	cursor  uint32
	visited map[uint32]arrival
}

func newWalk(start uint32) *walk {
	return &walk{cursor: start, visited: map[uint32]arrival{start: fromSelf}}
}

// climb moves one level up and returns the reached ancestor, or nilNode at the root.
func (w *walk) climb(storage []node) uint32 {
	parent := storage[w.cursor].parent
	if parent == nilNode {
		return nilNode
	}

	how := fromLarger
	if sideOf(w.cursor, storage) == Smaller {
		how = fromSmaller
	}

	w.visited[parent] = how
	w.cursor = parent

	return parent
}

// compareHandles walks both nodes towards the root one level at a time until
// one walk steps onto a node the other has already visited: their lowest
// common ancestor. The sides on which the two walks arrived there give the
// order.
func (tree *Tree[K]) compareHandles(aHandle, bHandle uint32) int {
	storage := tree.arena.live()
	aWalk := newWalk(aHandle)
	bWalk := newWalk(bHandle)

	for {
		aNext := aWalk.climb(storage)
		if aNext != nilNode {
			if bHow, met := bWalk.visited[aNext]; met {
				return orderAt(aWalk.visited[aNext], bHow)
			}
		}

		bNext := bWalk.climb(storage)
		if bNext != nilNode {
			if aHow, met := aWalk.visited[bNext]; met {
				return orderAt(aHow, bWalk.visited[bNext])
			}
		}

		if aNext == nilNode && bNext == nilNode {
			assertStructure(false, "nodes %d and %d share no ancestor", aHandle, bHandle)
		}
	}
}

// orderAt decides the order of a and b from how each reached their common ancestor.
func orderAt(aHow, bHow arrival) int {
	switch {
	case aHow == fromSelf:
		// a is the ancestor of b.
		assertStructure(bHow != fromSelf, "distinct nodes reached the same ancestor as self")

		if bHow == fromLarger {
			return -1
		}

		return 1
	case bHow == fromSelf:
		// b is the ancestor of a.
		if aHow == fromSmaller {
			return -1
		}

		return 1
	case aHow == bHow:
		assertStructure(false, "both walks arrived from the same side")

		return 0
	case aHow == fromSmaller:
		return -1
	default:
		return 1
	}
}
