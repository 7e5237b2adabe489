package bracket

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/bracketorder/pkg/ordertree"
)

// Sentinel errors for the reconstruction.
var (
	// ErrBrokenInvariant is returned when a match in a later round cannot be
	// traced back to a match of the previous round.
	ErrBrokenInvariant = errors.New("broken bracket invariant")
	// ErrEmptyMatch is returned for a match without entrants.
	ErrEmptyMatch = errors.New("match has no entrants")
)

// InvariantError pins a reconstruction failure to a position in the input.
type InvariantError struct {
	Err     error
	Entrant string
	Round   int
	Match   int
}

func (ie *InvariantError) Error() string {
	if ie.Entrant == "" {
		return fmt.Sprintf("round %d match %d: %v", ie.Round, ie.Match, ie.Err)
	}

	return fmt.Sprintf("round %d match %d: entrant %q: %v", ie.Round, ie.Match, ie.Entrant, ie.Err)
}

func (ie *InvariantError) Unwrap() error {
	return ie.Err
}

// Options tunes a Reconstructor. Zero-value fields use defaults.
type Options struct {
	// Logger receives per-round debug records. Nil discards them.
	Logger *slog.Logger
	// Arena backs the entrant order. Defaults to a fresh arena.
	Arena *ordertree.Arena
}

// Reconstructor consumes rounds in chronological order and builds both the
// entrant order and the bracket forest.
//
// A Reconstructor is not safe for concurrent use. After AddRound fails the
// partial state is kept for inspection and every further AddRound returns the
// same error.
type Reconstructor struct {
	order  *ordertree.Tree[string]
	logger *slog.Logger

	roots  []*MatchNode
	rounds []string
	// previous maps an entrant to the match it played in the last round.
	previous map[string]*MatchNode
	nodes    []*MatchNode
	err      error
}

// NewReconstructor creates an empty Reconstructor.
func NewReconstructor(opts Options) *Reconstructor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	order := ordertree.New[string]()
	if opts.Arena != nil {
		order = ordertree.NewWithArena[string](opts.Arena)
	}

	return &Reconstructor{
		order:    order,
		logger:   logger,
		previous: map[string]*MatchNode{},
	}
}

// Reconstruct runs a fresh Reconstructor over all rounds.
func Reconstruct(rounds []Round, opts Options) (*Reconstructor, error) {
	rec := NewReconstructor(opts)

	for _, round := range rounds {
		err := rec.AddRound(round)
		if err != nil {
			return rec, err
		}
	}

	return rec, nil
}

// AddRound folds the next round into the reconstruction.
//
// The first round seeds the order: each match becomes a forest root and its
// entrants are appended in listing order. In every later round the anchor of
// a match is its earliest placed non-revival entrant. A new entrant listed
// after the anchor is placed just after the nearest placed entrant to its
// left in the listing; one listed before the anchor just before the nearest
// placed entrant to its right. Each match is
// linked from the previous-round matches of its non-revival entrants.
func (r *Reconstructor) AddRound(round Round) (err error) {
	if r.err != nil {
		return r.err
	}

	defer func() {
		err = ordertree.AsStructuralCorruption(recover(), err)
		r.err = err
	}()

	index := len(r.rounds)
	current := make(map[string]*MatchNode, len(r.previous))
	placedBefore := r.order.Len()

	for matchIndex, match := range round.Matches {
		if len(match.Entrants) == 0 {
			return &InvariantError{Err: ErrEmptyMatch, Round: index, Match: matchIndex}
		}

		node := newMatchNode(index, matchIndex, match)

		if index == 0 {
			err = r.seed(node, current)
		} else {
			err = r.advance(node, current)
		}

		if err != nil {
			return err
		}

		r.nodes = append(r.nodes, node)
	}

	r.previous = current
	r.rounds = append(r.rounds, round.Name)

	r.logger.Debug("bracket round reconstructed",
		"round", index,
		"name", round.Name,
		"matches", len(round.Matches),
		"placed", r.order.Len()-placedBefore,
	)

	return nil
}

func (r *Reconstructor) seed(node *MatchNode, current map[string]*MatchNode) error {
	r.roots = append(r.roots, node)

	for _, entrant := range node.Match.Entrants {
		current[entrant.ID] = node

		if r.order.Contains(entrant.ID) {
			continue
		}

		err := r.order.InsertAsMaximum(entrant.ID)
		if err != nil {
			return r.placementError(node, entrant.ID, err)
		}
	}

	return nil
}

func (r *Reconstructor) advance(node *MatchNode, current map[string]*MatchNode) error {
	entrants := node.Match.Entrants

	anchorAt := r.anchorOf(entrants)
	if anchorAt < 0 {
		// Nobody advanced into this match; it starts a new tree of the forest.
		r.roots = append(r.roots, node)

		return nil
	}

	anchor := entrants[anchorAt].ID

	from, ok := r.previous[anchor]
	if !ok {
		return &InvariantError{
			Err:     ErrBrokenInvariant,
			Entrant: anchor,
			Round:   node.Round,
			Match:   node.Index,
		}
	}

	// New entrants go next to their nearest placed neighbor, walking outwards
	// from the anchor, so the listing order survives around placed entrants.
	cursor := anchor

	var err error

	for i := anchorAt - 1; i >= 0; i-- {
		cursor, err = r.place(node, entrants[i], ordertree.Smaller, cursor)
		if err != nil {
			return err
		}
	}

	cursor = anchor

	for _, entrant := range entrants[anchorAt+1:] {
		cursor, err = r.place(node, entrant, ordertree.Larger, cursor)
		if err != nil {
			return err
		}
	}

	linked := map[*MatchNode]bool{from: true}
	from.addChild(node)

	for _, entrant := range entrants {
		if entrant.Revival {
			continue
		}

		current[entrant.ID] = node

		if prev, seen := r.previous[entrant.ID]; seen && !linked[prev] {
			linked[prev] = true
			prev.addChild(node)
		}
	}

	return nil
}

// place inserts entrant on the given side of cursor unless it is already
// placed, and returns the cursor for the next entrant further out.
func (r *Reconstructor) place(node *MatchNode, entrant Entrant, dir ordertree.Direction, cursor string) (string, error) {
	if entrant.Revival {
		return cursor, nil
	}

	if !r.order.Contains(entrant.ID) {
		err := r.order.InsertRelative(entrant.ID, dir, cursor)
		if err != nil {
			return cursor, r.placementError(node, entrant.ID, err)
		}
	}

	return entrant.ID, nil
}

// anchorOf returns the position of the earliest placed non-revival entrant,
// or -1 when every entrant is a revival. Unplaced identifiers order after
// placed ones, so the first non-revival entrant wins when none is placed.
func (r *Reconstructor) anchorOf(entrants []Entrant) int {
	best := -1

	for i, entrant := range entrants {
		if entrant.Revival {
			continue
		}

		if best < 0 || r.order.Compare(entrant.ID, entrants[best].ID) < 0 {
			best = i
		}
	}

	return best
}

func (r *Reconstructor) placementError(node *MatchNode, entrant string, err error) error {
	return &InvariantError{Err: err, Entrant: entrant, Round: node.Round, Match: node.Index}
}

// Order exposes the entrant order built so far.
func (r *Reconstructor) Order() *ordertree.Tree[string] {
	return r.order
}

// Roots returns the forest roots in creation order.
func (r *Reconstructor) Roots() []*MatchNode {
	out := make([]*MatchNode, len(r.roots))
	copy(out, r.roots)

	return out
}

// Rounds returns the names of the rounds consumed so far.
func (r *Reconstructor) Rounds() []string {
	out := make([]string, len(r.rounds))
	copy(out, r.rounds)

	return out
}

// Matches returns every match node in round, then listing order.
func (r *Reconstructor) Matches() []*MatchNode {
	out := make([]*MatchNode, len(r.nodes))
	copy(out, r.nodes)

	return out
}

// Err returns the error that stopped the reconstruction, if any.
func (r *Reconstructor) Err() error {
	return r.err
}

// Compare orders two entrants; see ordertree.Tree.Compare. A corrupted order
// is reported as an error instead of a panic.
func (r *Reconstructor) Compare(a, b string) (cmp int, err error) {
	defer func() { err = ordertree.AsStructuralCorruption(recover(), err) }()

	return r.order.Compare(a, b), nil
}

// Ranks returns the zero-based position of every placed entrant.
func (r *Reconstructor) Ranks() map[string]int {
	return r.order.RankOrder()
}
