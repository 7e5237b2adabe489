// Package ordertree implements an order-maintenance tree: a red-black tree
// whose in-order sequence is built only from relative placements ("insert X
// right before/after Y", "append X at the end") and never from comparing
// identifiers. Pairwise order is recovered from the tree shape.
//
// Nodes live in an Arena and refer to each other by uint32 handle, so parent
// back-references never form ownership cycles and rotations only rewrite
// handles.
//
// A Tree is not safe for concurrent use; callers coordinate access.
package ordertree

import (
	"fmt"
	"iter"
)

// Direction selects the side of an anchor a new identifier is placed on.
type Direction uint8

const (
	// Smaller places the new identifier immediately before the anchor.
	Smaller Direction = iota
	// Larger places the new identifier immediately after the anchor.
	Larger
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case Smaller:
		return "smaller"
	case Larger:
		return "larger"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

func (d Direction) opposite() Direction {
	return 1 - d
}

func (d Direction) valid() bool {
	return d == Smaller || d == Larger
}

// Tree is an order-maintenance tree over identifiers of type K.
type Tree[K comparable] struct {
	arena *Arena

	// keys is parallel to the arena storage: keys[handle] is the node identifier.
	keys  []K
	index map[K]uint32

	root    uint32
	maxNode uint32
}

// New creates an empty tree backed by a fresh arena.
func New[K comparable]() *Tree[K] {
	return NewWithArena[K](NewArena())
}

// NewWithArena creates an empty tree on the given, unused arena.
func NewWithArena[K comparable](arena *Arena) *Tree[K] {
	return &Tree[K]{
		arena: arena,
		index: map[K]uint32{},
	}
}

// Arena returns the bound node arena.
func (tree *Tree[K]) Arena() *Arena {
	return tree.arena
}

// Len returns the number of placed identifiers.
func (tree *Tree[K]) Len() int {
	return len(tree.index)
}

// Contains reports whether id has been placed.
func (tree *Tree[K]) Contains(id K) bool {
	_, ok := tree.index[id]

	return ok
}

// Max returns the identifier at the structural maximum.
func (tree *Tree[K]) Max() (K, bool) {
	if tree.maxNode == nilNode {
		var zero K

		return zero, false
	}

	return tree.keys[tree.maxNode], true
}

// Root returns the identifier stored at the root.
func (tree *Tree[K]) Root() (K, bool) {
	if tree.root == nilNode {
		var zero K

		return zero, false
	}

	return tree.keys[tree.root], true
}

// InsertAsMaximum places id after every identifier already in the tree.
func (tree *Tree[K]) InsertAsMaximum(id K) (err error) {
	defer recoverCorruption(&err)

	if tree.Contains(id) {
		return &ReferenceError[K]{Err: ErrAlreadyPlaced, ID: id}
	}

	if tree.root == nilNode {
		handle, allocErr := tree.newNode(id)
		if allocErr != nil {
			return &ReferenceError[K]{Err: allocErr, ID: id}
		}

		tree.root = handle
		tree.maxNode = handle
		tree.arena.live()[handle].color = black

		return nil
	}

	handle, err := tree.attach(id, tree.maxNode, Larger)
	if err != nil {
		return err
	}

	tree.maxNode = handle
	tree.rebalance(handle)

	return nil
}

// InsertRelative places id immediately before (Smaller) or after (Larger)
// anchor. It fails with ErrReferenceNotFound when anchor is not placed.
func (tree *Tree[K]) InsertRelative(id K, dir Direction, anchor K) (err error) {
	defer recoverCorruption(&err)

	if !dir.valid() {
		return &ReferenceError[K]{Err: fmt.Errorf("%w: %v", ErrInvalidDirection, dir), ID: id, Anchor: anchor}
	}

	anchorHandle, ok := tree.index[anchor]
	if !ok {
		return &ReferenceError[K]{Err: ErrReferenceNotFound, ID: id, Anchor: anchor}
	}

	if tree.Contains(id) {
		return &ReferenceError[K]{Err: ErrAlreadyPlaced, ID: id, Anchor: anchor}
	}

	handle, err := tree.attach(id, anchorHandle, dir)
	if err != nil {
		return err
	}

	if dir == Larger && anchorHandle == tree.maxNode {
		tree.maxNode = handle
	}

	tree.rebalance(handle)

	return nil
}

// Compare returns -1, 0 or 1 as a is placed before, at, or after b.
//
// Identifiers are never compared by value. If exactly one of them is absent,
// the present one orders first; two absent identifiers compare equal.
//
// Compare panics if it finds the tree corrupted; see AsStructuralCorruption.
func (tree *Tree[K]) Compare(a, b K) int {
	if a == b {
		return 0
	}

	aHandle, aOK := tree.index[a]
	bHandle, bOK := tree.index[b]

	switch {
	case !aOK && !bOK:
		return 0
	case !aOK:
		return 1
	case !bOK:
		return -1
	}

	return tree.compareHandles(aHandle, bHandle)
}

// MinOf returns whichever of a and b is placed first.
func (tree *Tree[K]) MinOf(a, b K) K {
	if tree.Compare(a, b) > 0 {
		return b
	}

	return a
}

// All yields the placed identifiers in ascending order.
func (tree *Tree[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for cursor := tree.extreme(tree.root, Smaller); cursor != nilNode; cursor = tree.step(cursor, Larger) {
			if !yield(tree.keys[cursor]) {
				return
			}
		}
	}
}

// Ordered returns the placed identifiers in ascending order.
func (tree *Tree[K]) Ordered() []K {
	ordered := make([]K, 0, tree.Len())

	for id := range tree.All() {
		ordered = append(ordered, id)
	}

	return ordered
}

// RankOrder maps every placed identifier to its zero-based position.
func (tree *Tree[K]) RankOrder() map[K]int {
	ranks := make(map[K]int, tree.Len())

	rank := 0
	for id := range tree.All() {
		ranks[id] = rank
		rank++
	}

	return ranks
}

// Hibernate compresses the arena of an idle tree. Any later operation boots it.
func (tree *Tree[K]) Hibernate() error {
	return tree.arena.Hibernate()
}

func (tree *Tree[K]) newNode(id K) (uint32, error) {
	handle, err := tree.arena.malloc()
	if err != nil {
		return nilNode, err
	}

	for uint32(len(tree.keys)) <= handle { //nolint:gosec // keys never exceeds the arena size.
		var zero K

		tree.keys = append(tree.keys, zero)
	}

	tree.keys[handle] = id
	tree.index[id] = handle

	return handle, nil
}

// attach links a new red leaf for id as the in-order neighbour of anchor on
// side dir: directly as anchor's child when that slot is free, otherwise as the
// opposite-most descendant of that child's subtree.
func (tree *Tree[K]) attach(id K, anchor uint32, dir Direction) (uint32, error) {
	handle, err := tree.newNode(id)
	if err != nil {
		return nilNode, &ReferenceError[K]{Err: err, ID: id, Anchor: tree.keys[anchor]}
	}

	storage := tree.arena.live()

	parent := anchor
	side := dir

	if storage[anchor].child[dir] != nilNode {
		parent = tree.extreme(storage[anchor].child[dir], dir.opposite())
		side = dir.opposite()
	}

	assertStructure(storage[parent].child[side] == nilNode, "attach point %d already has a %v child", parent, side)

	storage[handle].parent = parent
	storage[handle].color = red
	storage[parent].child[side] = handle

	return handle, nil
}

// extreme descends from handle along side as far as possible.
func (tree *Tree[K]) extreme(handle uint32, side Direction) uint32 {
	if handle == nilNode {
		return nilNode
	}

	storage := tree.arena.live()

	for storage[handle].child[side] != nilNode {
		handle = storage[handle].child[side]
	}

	return handle
}

// step returns the in-order neighbour of handle on side, or nilNode.
func (tree *Tree[K]) step(handle uint32, side Direction) uint32 {
	storage := tree.arena.live()

	if storage[handle].child[side] != nilNode {
		return tree.extreme(storage[handle].child[side], side.opposite())
	}

	for {
		parent := storage[handle].parent
		if parent == nilNode {
			return nilNode
		}

		if storage[parent].child[side.opposite()] == handle {
			return parent
		}

		handle = parent
	}
}

// sideOf reports which child of its parent handle is.
func sideOf(handle uint32, storage []node) Direction {
	parent := storage[handle].parent
	assertStructure(parent != nilNode, "node %d has no parent", handle)

	switch handle {
	case storage[parent].child[Smaller]:
		return Smaller
	case storage[parent].child[Larger]:
		return Larger
	default:
		assertStructure(false, "node %d is not a child of its parent %d", handle, parent)

		return Smaller
	}
}

func colorOf(handle uint32, storage []node) bool {
	if handle == nilNode {
		return black
	}

	return storage[handle].color
}
