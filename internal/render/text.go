package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

// palette holds the colors used by the text renderer.
type palette struct {
	winner  *color.Color
	revival *color.Color
	header  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		winner:  color.New(color.FgGreen, color.Bold),
		revival: color.New(color.FgYellow),
		header:  color.New(color.FgCyan, color.Bold),
	}

	for _, c := range []*color.Color{p.winner, p.revival, p.header} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

func (p palette) entrant(entrant bracket.Entrant) string {
	switch {
	case entrant.Winner:
		return p.winner.Sprint(entrant.ID + "*")
	case entrant.Revival:
		return p.revival.Sprint(entrant.ID + "~")
	default:
		return entrant.ID
	}
}

// RoundLabel names a round, falling back to its ordinal.
func RoundLabel(index int, name string) string {
	if name != "" {
		return name
	}

	return humanize.Ordinal(index+1) + " round"
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

// Text writes a summary line, the entrant ranking and the matches of every
// round with the matches they advance into. Winners are marked with "*" and
// revival entrants with "~".
func Text(w io.Writer, result bracket.Result, opts Options) error {
	colors := newPalette(opts.Color)

	matches := 0
	for _, round := range result.Rounds {
		matches += len(round.Matches)
	}

	var out strings.Builder

	fmt.Fprintf(&out, "%s entrants, %s matches in %s rounds, %s links\n\n",
		humanize.Comma(int64(len(result.Order))),
		humanize.Comma(int64(matches)),
		humanize.Comma(int64(len(result.Rounds))),
		humanize.Comma(int64(len(result.Links))),
	)

	out.WriteString(colors.header.Sprint("Ranking") + "\n")
	out.WriteString(Ranking(result) + "\n\n")

	out.WriteString(colors.header.Sprint("Matches") + "\n")
	out.WriteString(matchTable(result, colors) + "\n")

	_, err := io.WriteString(w, out.String())
	if err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	return nil
}

// Ranking renders the entrant order as a table.
func Ranking(result bracket.Result) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Rank", "Entrant"})

	for rank, id := range result.Order {
		tbl.AppendRow(table.Row{rank + 1, id})
	}

	return tbl.Render()
}

// Pairs renders the advancement links as a table.
func Pairs(result bracket.Result) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"From", "To"})

	for _, link := range result.Links {
		tbl.AppendRow(table.Row{link.From, link.To})
	}

	return tbl.Render()
}

func matchTable(result bracket.Result, colors palette) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Round", "Match", "Entrants", "Advances to"})

	for i, round := range result.Rounds {
		label := RoundLabel(i, round.Name)

		for _, match := range round.Matches {
			names := make([]string, 0, len(match.Entrants))
			for _, entrant := range match.Entrants {
				names = append(names, colors.entrant(entrant))
			}

			handle := match.Handle
			if match.ID != "" {
				handle += " (" + match.ID + ")"
			}

			tbl.AppendRow(table.Row{label, handle, strings.Join(names, " vs "), strings.Join(match.Children, ", ")})
		}
	}

	return tbl.Render()
}

// Comparison writes the outcome of comparing two entrants.
func Comparison(w io.Writer, a, b string, cmp int) error {
	relation := "is placed at the same position as"

	switch {
	case cmp < 0:
		relation = "is placed before"
	case cmp > 0:
		relation = "is placed after"
	}

	_, err := fmt.Fprintf(w, "%s %s %s\n", a, relation, b)
	if err != nil {
		return fmt.Errorf("write comparison: %w", err)
	}

	return nil
}
