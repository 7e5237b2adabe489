package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

const (
	plotWidth       = "1200px"
	plotMinHeight   = 400
	plotRowHeight   = 28
	plotDefaultName = "Bracket"
	symbolSize      = 8
	labelFontSize   = 11
)

// Plot writes an HTML page with the bracket drawn as a tree: the last
// matches on the left and the matches feeding them to their right.
func Plot(w io.Writer, result bracket.Result, opts Options) error {
	err := BracketChart(result, opts).Render(w)
	if err != nil {
		return fmt.Errorf("render bracket chart: %w", err)
	}

	return nil
}

// BracketChart builds the tree chart for result.
func BracketChart(result bracket.Result, options Options) *charts.Tree {
	title := options.Title
	if title == "" {
		title = plotDefaultName
	}

	root := BracketTree(result, title)

	height := plotMinHeight
	if leaves := countLeaves(root) * plotRowHeight; leaves > height {
		height = leaves
	}

	tree := charts.NewTree()
	tree.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d entrants", len(result.Order))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     plotWidth,
			Height:    fmt.Sprintf("%dpx", height),
		}),
	)
	tree.AddSeries(title, []opts.TreeData{*root}, charts.WithTreeOpts(opts.TreeChart{
		Layout:           "orthogonal",
		Orient:           "RL",
		InitialTreeDepth: -1,
		Roam:             opts.Bool(true),
		Label:            &opts.Label{Show: opts.Bool(true), FontSize: labelFontSize},
		Top:              "8%",
		Bottom:           "2%",
		Left:             "12%",
		Right:            "12%",
	}))

	return tree
}

// BracketTree inverts the advancement edges so that each match lists the
// matches feeding it. Matches that feed nothing hang from a synthetic root.
func BracketTree(result bracket.Result, rootName string) *opts.TreeData {
	labels := map[string]string{}
	feeders := map[string][]string{}

	var terminal []string

	for _, round := range result.Rounds {
		for _, match := range round.Matches {
			labels[match.Handle] = matchLabel(match)

			if len(match.Children) == 0 {
				terminal = append(terminal, match.Handle)
			}

			for _, child := range match.Children {
				feeders[child] = append(feeders[child], match.Handle)
			}
		}
	}

	var build func(handle string) *opts.TreeData

	build = func(handle string) *opts.TreeData {
		node := &opts.TreeData{Name: labels[handle], SymbolSize: symbolSize}
		for _, feeder := range feeders[handle] {
			node.Children = append(node.Children, build(feeder))
		}

		return node
	}

	root := &opts.TreeData{Name: rootName, SymbolSize: symbolSize}
	for _, handle := range terminal {
		root.Children = append(root.Children, build(handle))
	}

	return root
}

func matchLabel(match bracket.MatchView) string {
	names := make([]string, 0, len(match.Entrants))
	for _, entrant := range match.Entrants {
		name := entrant.ID
		if entrant.Winner {
			name += "*"
		}

		names = append(names, name)
	}

	return match.Handle + ": " + strings.Join(names, " vs ")
}

func countLeaves(node *opts.TreeData) int {
	if len(node.Children) == 0 {
		return 1
	}

	total := 0
	for _, child := range node.Children {
		total += countLeaves(child)
	}

	return total
}
