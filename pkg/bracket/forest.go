package bracket

// Pair is one advancement edge of the forest.
type Pair struct {
	Parent *MatchNode
	Child  *MatchNode
}

// Link is a Pair expressed with match handles.
type Link struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// Pairs walks the forest breadth-first from every root and returns each
// advancement edge once. A match fed by several earlier matches is expanded
// the first time it is reached.
func (r *Reconstructor) Pairs() []Pair {
	var pairs []Pair

	seen := make(map[*MatchNode]bool, len(r.nodes))
	queue := make([]*MatchNode, 0, len(r.roots))

	for _, root := range r.roots {
		if !seen[root] {
			seen[root] = true
			queue = append(queue, root)
		}
	}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		for _, child := range parent.children {
			pairs = append(pairs, Pair{Parent: parent, Child: child})

			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}

	return pairs
}

// Links returns Pairs as handle pairs.
func (r *Reconstructor) Links() []Link {
	pairs := r.Pairs()
	links := make([]Link, 0, len(pairs))

	for _, pair := range pairs {
		links = append(links, Link{From: pair.Parent.Handle(), To: pair.Child.Handle()})
	}

	return links
}

// MatchView is the serializable form of a MatchNode.
type MatchView struct {
	Handle   string    `json:"handle"             yaml:"handle"`
	ID       string    `json:"id,omitempty"       yaml:"id,omitempty"`
	Entrants []Entrant `json:"entrants"           yaml:"entrants"`
	Children []string  `json:"children,omitempty" yaml:"children,omitempty"`
	Root     bool      `json:"root,omitempty"     yaml:"root,omitempty"`
}

// RoundView lists the matches of one round in listing order.
type RoundView struct {
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
	Matches []MatchView `json:"matches"        yaml:"matches"`
}

// Result is the complete output of a reconstruction.
type Result struct {
	Order  []string       `json:"order"  yaml:"order"`
	Ranks  map[string]int `json:"ranks"  yaml:"ranks"`
	Rounds []RoundView    `json:"rounds" yaml:"rounds"`
	Links  []Link         `json:"links"  yaml:"links"`
}

// Result snapshots the current reconstruction.
func (r *Reconstructor) Result() Result {
	roots := make(map[*MatchNode]bool, len(r.roots))
	for _, root := range r.roots {
		roots[root] = true
	}

	rounds := make([]RoundView, len(r.rounds))
	for i, name := range r.rounds {
		rounds[i] = RoundView{Name: name, Matches: []MatchView{}}
	}

	for _, node := range r.nodes {
		// A failed round leaves nodes past the last named round.
		if node.Round >= len(rounds) {
			break
		}

		view := MatchView{
			Handle:   node.Handle(),
			ID:       node.Match.ID,
			Entrants: node.Match.Entrants,
			Root:     roots[node],
		}

		for _, child := range node.children {
			view.Children = append(view.Children, child.Handle())
		}

		rounds[node.Round].Matches = append(rounds[node.Round].Matches, view)
	}

	return Result{
		Order:  r.order.Ordered(),
		Ranks:  r.order.RankOrder(),
		Rounds: rounds,
		Links:  r.Links(),
	}
}
