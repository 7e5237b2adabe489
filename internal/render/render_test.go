package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/bracketorder/internal/render"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

func sampleResult(t *testing.T) bracket.Result {
	t.Helper()

	entrants := func(ids ...string) []bracket.Entrant {
		out := make([]bracket.Entrant, 0, len(ids))
		for _, id := range ids {
			out = append(out, bracket.Entrant{ID: id})
		}

		return out
	}

	rounds := []bracket.Round{
		{Name: "Semifinals", Matches: []bracket.Match{
			{Entrants: entrants("p1", "p2")},
			{Entrants: entrants("p3", "p4")},
		}},
		{Matches: []bracket.Match{{ID: "final", Entrants: entrants("p2", "p3")}}},
	}
	rounds[1].Matches[0].Entrants[0].Winner = true

	rec, err := bracket.Reconstruct(rounds, bracket.Options{})
	require.NoError(t, err)

	return rec.Result()
}

func TestText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render.Text(&buf, sampleResult(t), render.Options{}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "4 entrants, 3 matches in 2 rounds, 2 links"))
	assert.Contains(t, out, "Ranking")
	assert.Contains(t, out, "Semifinals")
	assert.Contains(t, out, "2nd round")
	assert.Contains(t, out, "r1m0 (final)")
	assert.Contains(t, out, "p2* vs p3")
	assert.NotContains(t, out, "\x1b[")

	// Ranks appear in order.
	assert.Less(t, strings.Index(out, "p1"), strings.Index(out, "p4"))
}

func TestTextColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render.Text(&buf, sampleResult(t), render.Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPairsTable(t *testing.T) {
	t.Parallel()

	out := render.Pairs(sampleResult(t))
	assert.Contains(t, out, "FROM")
	assert.Contains(t, out, "r0m0")
	assert.Contains(t, out, "r0m1")
	assert.Equal(t, 2, strings.Count(out, "r1m0"))
}

func TestRoundLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Final", render.RoundLabel(4, "Final"))
	assert.Equal(t, "1st round", render.RoundLabel(0, ""))
	assert.Equal(t, "3rd round", render.RoundLabel(2, ""))
}

func TestWrite_StructuredFormats(t *testing.T) {
	t.Parallel()

	result := sampleResult(t)

	var jsonBuf bytes.Buffer
	require.NoError(t, render.Write(&jsonBuf, render.FormatJSON, result, render.Options{}))

	var fromJSON bracket.Result
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	assert.Equal(t, result.Order, fromJSON.Order)
	assert.Equal(t, result.Links, fromJSON.Links)

	var yamlBuf bytes.Buffer
	require.NoError(t, render.Write(&yamlBuf, render.FormatYAML, result, render.Options{}))

	var fromYAML bracket.Result
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, result.Ranks, fromYAML.Ranks)
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := render.Write(&bytes.Buffer{}, "csv", sampleResult(t), render.Options{})
	require.ErrorIs(t, err, render.ErrUnknownFormat)
}

func TestBracketTree(t *testing.T) {
	t.Parallel()

	root := render.BracketTree(sampleResult(t), "cup")
	assert.Equal(t, "cup", root.Name)
	require.Len(t, root.Children, 1)

	final := root.Children[0]
	assert.Equal(t, "r1m0: p2* vs p3", final.Name)
	require.Len(t, final.Children, 2)
	assert.Equal(t, "r0m0: p1 vs p2", final.Children[0].Name)
	assert.Equal(t, "r0m1: p3 vs p4", final.Children[1].Name)
}

func TestPlot(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render.Write(&buf, render.FormatPlot, sampleResult(t), render.Options{Title: "Spring cup"}))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Spring cup")
	assert.Contains(t, out, "r1m0")
}

func TestComparison(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render.Comparison(&buf, "p1", "p2", -1))
	require.NoError(t, render.Comparison(&buf, "p2", "p1", 1))
	require.NoError(t, render.Comparison(&buf, "p1", "p1", 0))

	assert.Equal(t,
		"p1 is placed before p2\np2 is placed after p1\np1 is placed at the same position as p1\n",
		buf.String())
}
