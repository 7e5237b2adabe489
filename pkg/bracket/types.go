// Package bracket rebuilds the shape of a single-elimination bracket from
// per-round match records. Entrants are placed in a relative order as rounds
// arrive and every match is linked to the later matches its entrants advance
// into.
package bracket

import (
	"fmt"
	"slices"
)

// Entrant is one participant's record inside a match.
type Entrant struct {
	ID      string `json:"name"                     yaml:"name"`
	EntryID int64  `json:"match_entry_id,omitempty" yaml:"match_entry_id,omitempty"`
	Winner  bool   `json:"is_winner"                yaml:"is_winner"`
	// Revival marks an entrant reintroduced into this round instead of
	// advancing from the previous one.
	Revival bool `json:"is_from_revival" yaml:"is_from_revival"`
}

// Match is the ordered list of entrants of one match.
type Match struct {
	ID       string    `json:"id,omitempty"     yaml:"id,omitempty"`
	Entrants []Entrant `json:"match_entry_data" yaml:"match_entry_data"`
}

// Round is the ordered list of matches played in one round.
type Round struct {
	Name    string  `json:"round_name" yaml:"round_name"`
	Matches []Match `json:"matches"    yaml:"matches"`
}

// EntrantIDs returns the entrant identifiers in listing order.
func (m Match) EntrantIDs() []string {
	ids := make([]string, 0, len(m.Entrants))
	for _, entrant := range m.Entrants {
		ids = append(ids, entrant.ID)
	}

	return ids
}

// MatchNode is one match of the reconstructed bracket together with the
// matches its entrants advance into.
type MatchNode struct {
	Round int
	Index int
	Match Match

	children []*MatchNode
}

func newMatchNode(round, index int, match Match) *MatchNode {
	return &MatchNode{Round: round, Index: index, Match: match}
}

// Handle is a stable name for the node: "r<round>m<match>", both zero-based.
func (mn *MatchNode) Handle() string {
	return fmt.Sprintf("r%dm%d", mn.Round, mn.Index)
}

// Children returns the matches this match advances into, in link order.
func (mn *MatchNode) Children() []*MatchNode {
	return slices.Clone(mn.children)
}

func (mn *MatchNode) addChild(child *MatchNode) {
	mn.children = append(mn.children, child)
}

func (mn *MatchNode) String() string {
	return fmt.Sprintf("%s%v", mn.Handle(), mn.Match.EntrantIDs())
}
