package ordertree

import (
	"fmt"
	"math"
)

const (
	red   = false
	black = true

	// nilNode is the reserved sentinel handle. Slot zero of every arena is never used.
	nilNode uint32 = 0
	// maxNodes bounds the arena; [math.MaxUint32] itself is never handed out.
	maxNodes = math.MaxUint32 - 1

	// hibernatedColumns is the number of uint32 columns a node is split into.
	hibernatedColumns = 4

	// growCapacityNumerator and growCapacityDenominator define the 3/2 growth
	// factor applied to storage when an arena boots.
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// node is one arena slot. Children are indexed by Direction so that the
// balancing code is written once for both sides.
type node struct {
	parent uint32
	child  [2]uint32
	color  bool // Black or red.
}

// Arena owns the nodes of one Tree. Handles are indexes into storage and stay
// valid for the lifetime of the arena: nodes are never freed or moved.
//
// An idle arena can be hibernated: its link columns are LZ4-compressed and
// the live storage is released. The next tree operation boots it back.
type Arena struct {
	storage []node

	hibernatedData [hibernatedColumns][]byte
	hibernatedLen  int

	// HibernationThreshold is the minimum number of slots worth compressing.
	// Smaller arenas ignore Hibernate.
	HibernationThreshold int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{storage: []node{}}
}

// Used returns the number of nodes handed out.
func (arena *Arena) Used() int {
	if arena.hibernatedLen > 0 {
		return arena.hibernatedLen - 1
	}

	if len(arena.storage) == 0 {
		return 0
	}

	return len(arena.storage) - 1
}

// Hibernated reports whether the arena currently holds only compressed data.
func (arena *Arena) Hibernated() bool {
	return arena.hibernatedLen > 0
}

// Hibernate compresses the node links and releases the live storage.
// It is a no-op on an already hibernated arena or below HibernationThreshold.
func (arena *Arena) Hibernate() error {
	if arena.hibernatedLen > 0 || len(arena.storage) == 0 || len(arena.storage) < arena.HibernationThreshold {
		return nil
	}

	columns := [hibernatedColumns][]uint32{}
	for idx := range columns {
		columns[idx] = make([]uint32, len(arena.storage))
	}

	// Deinterleave to get a better compression ratio.
	for idx, nd := range arena.storage {
		columns[0][idx] = nd.parent
		columns[1][idx] = nd.child[Smaller]
		columns[2][idx] = nd.child[Larger]

		if nd.color {
			columns[3][idx] = 1
		}
	}

	var compressed [hibernatedColumns][]byte

	for idx, column := range columns {
		if idx < len(columns)-1 {
			deltaEncode(column)
		}

		data, err := compressColumn(column)
		if err != nil {
			return fmt.Errorf("hibernate column %d: %w", idx, err)
		}

		compressed[idx] = data
	}

	arena.hibernatedData = compressed
	arena.hibernatedLen = len(arena.storage)
	arena.storage = nil

	return nil
}

// Boot performs the opposite of Hibernate. Booting an awake arena is a no-op.
func (arena *Arena) Boot() error {
	if arena.hibernatedLen == 0 {
		if arena.storage == nil {
			arena.storage = []node{}
		}

		return nil
	}

	columns := [hibernatedColumns][]uint32{}

	for idx := range columns {
		columns[idx] = make([]uint32, arena.hibernatedLen)

		err := decompressColumn(arena.hibernatedData[idx], columns[idx])
		if err != nil {
			return fmt.Errorf("boot column %d: %w", idx, err)
		}

		if idx < len(columns)-1 {
			deltaDecode(columns[idx])
		}
	}

	capSize := (arena.hibernatedLen * growCapacityNumerator) / growCapacityDenominator
	storage := make([]node, arena.hibernatedLen, capSize)

	for idx := range storage {
		nd := &storage[idx]
		nd.parent = columns[0][idx]
		nd.child[Smaller] = columns[1][idx]
		nd.child[Larger] = columns[2][idx]
		nd.color = columns[3][idx] > 0
	}

	arena.storage = storage
	arena.hibernatedData = [hibernatedColumns][]byte{}
	arena.hibernatedLen = 0

	return nil
}

// live returns the booted storage. A failed boot means the compressed
// columns were damaged, which is reported as structural corruption.
func (arena *Arena) live() []node {
	if arena.hibernatedLen > 0 {
		err := arena.Boot()
		assertStructure(err == nil, "boot hibernated arena: %v", err)
	}

	return arena.storage
}

func (arena *Arena) malloc() (uint32, error) {
	storage := arena.live()

	if len(storage) == 0 {
		// Zero is reserved.
		arena.storage = append(arena.storage, node{color: black})
	}

	if len(arena.storage) > maxNodes {
		return nilNode, ErrArenaFull
	}

	handle := uint32(len(arena.storage)) //nolint:gosec // bounded by maxNodes above.
	arena.storage = append(arena.storage, node{color: red})

	return handle, nil
}
