package ordertree

// rebalance restores the red-black properties after handle was attached as a
// red leaf. The classic left/right cases are expressed once over Direction.
func (tree *Tree[K]) rebalance(handle uint32) {
	storage := tree.arena.live()
	current := handle

	for {
		parent := storage[current].parent

		// The current node is the root.
		if parent == nilNode {
			break
		}

		// A black parent already satisfies the properties.
		if storage[parent].color == black {
			break
		}

		// A red parent is never the root, so the grandparent exists.
		grandparent := storage[parent].parent
		assertStructure(grandparent != nilNode, "red node %d is the root", parent)

		parentSide := sideOf(parent, storage)
		uncle := storage[grandparent].child[parentSide.opposite()]

		// Case 1: parent and uncle are both red. Recolor and continue upwards.
		if colorOf(uncle, storage) == red {
			storage[parent].color = black
			storage[uncle].color = black
			storage[grandparent].color = red
			current = grandparent

			continue
		}

		// Case 2: zig-zag. Rotate the parent so that the three nodes line up.
		if sideOf(current, storage) != parentSide {
			tree.rotate(parent, parentSide.opposite())
			current = parent
			parent = storage[current].parent
		}

		// Case 3: straight line. Recolor and rotate the grandparent once.
		storage[parent].color = black
		storage[grandparent].color = red
		tree.rotate(grandparent, parentSide)

		break
	}

	storage[tree.root].color = black
}

// rotate promotes the child of pivot on side promote into pivot's place.
//
// rotate(X, Larger):
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// rotate(Y, Smaller):
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[K]) rotate(pivot uint32, promote Direction) {
	storage := tree.arena.live()

	child := storage[pivot].child[promote]
	assertStructure(child != nilNode, "rotate node %d: no %v child to promote", pivot, promote)

	// Move the inner subtree.
	inner := storage[child].child[promote.opposite()]
	storage[pivot].child[promote] = inner

	if inner != nilNode {
		storage[inner].parent = pivot
	}

	// Update parent links.
	grandparent := storage[pivot].parent
	storage[child].parent = grandparent

	if grandparent == nilNode {
		tree.root = child
	} else {
		storage[grandparent].child[sideOf(pivot, storage)] = child
	}

	// Complete the rotation.
	storage[child].child[promote.opposite()] = pivot
	storage[pivot].parent = child
}
