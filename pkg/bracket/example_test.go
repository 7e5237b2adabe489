package bracket_test

import (
	"fmt"

	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

func entrants(ids ...string) []bracket.Entrant {
	out := make([]bracket.Entrant, 0, len(ids))
	for _, id := range ids {
		out = append(out, bracket.Entrant{ID: id})
	}

	return out
}

func ExampleReconstruct() {
	rec, err := bracket.Reconstruct([]bracket.Round{
		{Name: "Semifinals", Matches: []bracket.Match{
			{Entrants: entrants("ana", "bo")},
			{Entrants: entrants("cy", "dee")},
		}},
		{Name: "Final", Matches: []bracket.Match{
			{Entrants: entrants("bo", "cy")},
		}},
	}, bracket.Options{})
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(rec.Order().Ordered())

	for _, link := range rec.Links() {
		fmt.Println(link.From, "->", link.To)
	}

	cmp, _ := rec.Compare("dee", "ana")
	fmt.Println(cmp)

	// Output:
	// [ana bo cy dee]
	// r0m0 -> r1m0
	// r0m1 -> r1m0
	// 1
}

func ExampleSortMatches() {
	sorted := bracket.SortMatches([]bracket.Round{
		{Matches: []bracket.Match{
			{Entrants: entrants("ana", "bo")},
			{Entrants: entrants("cy", "dee")},
		}},
		{Matches: []bracket.Match{
			{Entrants: entrants("dee", "eve")},
			{Entrants: entrants("bo", "fay")},
		}},
	})

	for _, match := range sorted[1].Matches {
		fmt.Println(match.EntrantIDs())
	}

	// Output:
	// [bo fay]
	// [dee eve]
}
