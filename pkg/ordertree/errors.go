package ordertree

import (
	"errors"
	"fmt"
)

var (
	// ErrReferenceNotFound is returned when a relative insertion names an anchor
	// that has not been placed.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrAlreadyPlaced is returned when an identifier is inserted twice.
	ErrAlreadyPlaced = errors.New("identifier already placed")
	// ErrStructuralCorruption marks a tree state that the red-black invariants rule out.
	// It always indicates a defect in this package, never bad input.
	ErrStructuralCorruption = errors.New("order tree structural corruption")
	// ErrArenaFull is returned when the node arena has exhausted its uint32 handle space.
	ErrArenaFull = errors.New("order tree arena is full")
	// ErrInvalidDirection is returned for a Direction other than Smaller or Larger.
	ErrInvalidDirection = errors.New("invalid direction")
)

// ReferenceError carries the identifiers involved in a failed tree operation.
type ReferenceError[K comparable] struct {
	Err    error
	ID     K
	Anchor K
}

func (re *ReferenceError[K]) Error() string {
	if errors.Is(re.Err, ErrReferenceNotFound) {
		return fmt.Sprintf("insert %v relative to %v: %v", re.ID, re.Anchor, re.Err)
	}

	return fmt.Sprintf("insert %v: %v", re.ID, re.Err)
}

func (re *ReferenceError[K]) Unwrap() error {
	return re.Err
}

// corruption is the panic payload raised by assertions inside the tree.
type corruption struct {
	err error
}

func assertStructure(condition bool, format string, args ...any) {
	if !condition {
		panic(corruption{err: fmt.Errorf("%w: %s", ErrStructuralCorruption, fmt.Sprintf(format, args...))})
	}
}

// recoverCorruption turns an assertion panic into an error on *errp.
// Other panics are re-raised.
func recoverCorruption(errp *error) {
	rec := recover()
	if rec == nil {
		return
	}

	c, ok := rec.(corruption)
	if !ok {
		panic(rec)
	}

	*errp = c.err
}

// AsStructuralCorruption converts a panic raised by Compare or MinOf on a
// corrupted tree into an error. Call it from a deferred function:
//
//	defer func() { err = ordertree.AsStructuralCorruption(recover(), err) }()
//
// A nil rec leaves err untouched; a foreign panic is re-raised.
func AsStructuralCorruption(rec any, err error) error {
	if rec == nil {
		return err
	}

	c, ok := rec.(corruption)
	if !ok {
		panic(rec)
	}

	return c.err
}
