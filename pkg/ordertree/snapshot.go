package ordertree

import (
	"errors"
	"fmt"
)

// Color is the red-black color of a node as reported by DebugSnapshot.
type Color string

// Node colors.
const (
	Red   Color = "red"
	Black Color = "black"
)

// NodeView describes one node and its structural neighbours. A nil link means
// the neighbour does not exist.
type NodeView[K comparable] struct {
	Color   Color
	Parent  *K
	Smaller *K
	Larger  *K
}

// Snapshot is a structural dump of a tree, intended for tests and debugging.
type Snapshot[K comparable] struct {
	Root  *K
	Max   *K
	Nodes map[K]NodeView[K]
}

// DebugSnapshot exposes every node's color and neighbours.
func (tree *Tree[K]) DebugSnapshot() Snapshot[K] {
	storage := tree.arena.live()

	snap := Snapshot[K]{
		Root:  tree.keyRef(tree.root),
		Max:   tree.keyRef(tree.maxNode),
		Nodes: make(map[K]NodeView[K], tree.Len()),
	}

	for id, handle := range tree.index {
		nd := storage[handle]

		color := Red
		if nd.color == black {
			color = Black
		}

		snap.Nodes[id] = NodeView[K]{
			Color:   color,
			Parent:  tree.keyRef(nd.parent),
			Smaller: tree.keyRef(nd.child[Smaller]),
			Larger:  tree.keyRef(nd.child[Larger]),
		}
	}

	return snap
}

func (tree *Tree[K]) keyRef(handle uint32) *K {
	if handle == nilNode {
		return nil
	}

	id := tree.keys[handle]

	return &id
}

// Invariant violations reported by Verify.
var (
	ErrRedRoot       = errors.New("root is red")
	ErrRedRed        = errors.New("red node has a red child")
	ErrBlackHeight   = errors.New("black height differs between paths")
	ErrBrokenLink    = errors.New("parent and child links disagree")
	ErrIndexMismatch = errors.New("identifier index does not match the reachable nodes")
	ErrStaleMaximum  = errors.New("maximum pointer is not the rightmost node")
)

// Verify checks the red-black properties, the parent/child link symmetry,
// the identifier index bijection and the maximum pointer.
func (tree *Tree[K]) Verify() error {
	storage := tree.arena.live()

	if tree.root == nilNode {
		if len(tree.index) != 0 || tree.maxNode != nilNode {
			return ErrIndexMismatch
		}

		return nil
	}

	if storage[tree.root].color == red {
		return ErrRedRoot
	}

	if storage[tree.root].parent != nilNode {
		return fmt.Errorf("%w: root %v has a parent", ErrBrokenLink, tree.keys[tree.root])
	}

	reached := 0

	_, err := tree.verifySubtree(tree.root, storage, &reached)
	if err != nil {
		return err
	}

	if reached != len(tree.index) {
		return fmt.Errorf("%w: %d reachable, %d indexed", ErrIndexMismatch, reached, len(tree.index))
	}

	for id, handle := range tree.index {
		if tree.keys[handle] != id {
			return fmt.Errorf("%w: %v", ErrIndexMismatch, id)
		}
	}

	if tree.maxNode != tree.extreme(tree.root, Larger) {
		return ErrStaleMaximum
	}

	return nil
}

// verifySubtree returns the black height of the subtree rooted at handle.
func (tree *Tree[K]) verifySubtree(handle uint32, storage []node, reached *int) (int, error) {
	if handle == nilNode {
		return 1, nil
	}

	*reached++

	nd := storage[handle]
	heights := [2]int{}

	for _, side := range []Direction{Smaller, Larger} {
		child := nd.child[side]
		if child == nilNode {
			heights[side] = 1

			continue
		}

		if storage[child].parent != handle {
			return 0, fmt.Errorf("%w: %v -> %v", ErrBrokenLink, tree.keys[handle], tree.keys[child])
		}

		if nd.color == red && storage[child].color == red {
			return 0, fmt.Errorf("%w: %v -> %v", ErrRedRed, tree.keys[handle], tree.keys[child])
		}

		height, err := tree.verifySubtree(child, storage, reached)
		if err != nil {
			return 0, err
		}

		heights[side] = height
	}

	if heights[Smaller] != heights[Larger] {
		return 0, fmt.Errorf("%w: at %v (%d vs %d)", ErrBlackHeight, tree.keys[handle], heights[Smaller], heights[Larger])
	}

	if nd.color == black {
		return heights[Smaller] + 1, nil
	}

	return heights[Smaller], nil
}
