package roundfile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bracketorder/internal/roundfile"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

func TestLoad_YAMLAndJSONAgree(t *testing.T) {
	t.Parallel()

	opts := roundfile.Options{Validate: true}

	fromYAML, err := roundfile.Load(filepath.Join("testdata", "two_rounds.yaml"), opts)
	require.NoError(t, err)

	fromJSON, err := roundfile.Load(filepath.Join("testdata", "two_rounds.json"), opts)
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromJSON)

	require.Len(t, fromYAML, 2)
	assert.Equal(t, "Semifinals", fromYAML[0].Name)
	assert.Equal(t, []string{"p3", "p4"}, fromYAML[0].Matches[1].EntrantIDs())
	assert.Equal(t, bracket.Entrant{ID: "p2", EntryID: 21, Winner: true}, fromYAML[1].Matches[0].Entrants[0])
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	_, err := roundfile.Load(filepath.Join("testdata", "invalid.yaml"), roundfile.Options{Validate: true})
	require.ErrorIs(t, err, roundfile.ErrSchema)
	assert.Contains(t, err.Error(), "invalid.yaml")
	assert.Contains(t, err.Error(), "name")

	// Without validation the type mismatch still fails, but in the decoder.
	_, err = roundfile.Load(filepath.Join("testdata", "invalid.yaml"), roundfile.Options{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, roundfile.ErrSchema)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := roundfile.Load(filepath.Join(t.TempDir(), "nope.json"), roundfile.Options{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want roundfile.Format
	}{
		{"rounds.json", "", roundfile.FormatJSON},
		{"rounds.YML", "", roundfile.FormatYAML},
		{"rounds.yaml", "[]", roundfile.FormatYAML},
		{"-", "  \n[{\"matches\": []}]", roundfile.FormatJSON},
		{"rounds.txt", "- matches: []", roundfile.FormatYAML},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, roundfile.DetectFormat(tt.name, []byte(tt.data)), tt.name)
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := roundfile.Decode([]byte("[]"), "toml", roundfile.Options{})
	require.ErrorIs(t, err, roundfile.ErrUnknownFormat)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, err := roundfile.Decode([]byte("[{"), roundfile.FormatJSON, roundfile.Options{Validate: true})
	require.Error(t, err)
	assert.NotErrorIs(t, err, roundfile.ErrSchema)
}

func TestValidate_RejectsWrongTopLevel(t *testing.T) {
	t.Parallel()

	err := roundfile.Validate(map[string]any{"rounds": []any{}})
	require.ErrorIs(t, err, roundfile.ErrSchema)

	require.NoError(t, roundfile.Validate([]any{}))
}

func TestRead_RoundTripsThroughEncode(t *testing.T) {
	t.Parallel()

	rounds := []bracket.Round{{
		Name: "only",
		Matches: []bracket.Match{{
			ID:       "m1",
			Entrants: []bracket.Entrant{{ID: "a", Winner: true}, {ID: "b", Revival: true}},
		}},
	}}

	for _, format := range []roundfile.Format{roundfile.FormatJSON, roundfile.FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, roundfile.Encode(&buf, rounds, format))

		decoded, err := roundfile.Read(strings.NewReader(buf.String()), format, roundfile.Options{Validate: true})
		require.NoError(t, err, string(format))
		assert.Equal(t, rounds, decoded, string(format))
	}

	require.ErrorIs(t, roundfile.Encode(&bytes.Buffer{}, rounds, "xml"), roundfile.ErrUnknownFormat)
}

func TestSchemaIsCopied(t *testing.T) {
	t.Parallel()

	schema := roundfile.Schema()
	require.NotEmpty(t, schema)

	schema[0] = 'x'
	assert.NotEqual(t, schema[0], roundfile.Schema()[0])
}
