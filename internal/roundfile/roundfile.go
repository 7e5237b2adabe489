// Package roundfile reads bracket rounds from JSON or YAML documents.
//
// A document is a list of rounds in chronological order:
//
//	- round_name: Quarterfinals
//	  matches:
//	    - match_entry_data:
//	        - {name: p1, is_winner: true}
//	        - {name: p2}
package roundfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

// Format names a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Sentinel errors.
var (
	// ErrSchema is returned when a document does not match rounds.schema.json.
	ErrSchema = errors.New("rounds document does not match schema")
	// ErrUnknownFormat is returned for formats other than json and yaml.
	ErrUnknownFormat = errors.New("unknown rounds format")
)

//go:embed rounds.schema.json
var schemaJSON []byte

// Schema returns the JSON schema rounds documents are validated against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// Options controls decoding.
type Options struct {
	// Validate checks the document against the schema before decoding.
	Validate bool
}

// Load reads the rounds file at path. The format follows the extension;
// anything other than .json, .yaml or .yml is sniffed from the content.
func Load(path string, opts Options) ([]bracket.Round, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rounds file: %w", err)
	}

	rounds, err := Decode(data, DetectFormat(path, data), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return rounds, nil
}

// Read decodes a whole document from r.
func Read(r io.Reader, format Format, opts Options) ([]bracket.Round, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rounds: %w", err)
	}

	return Decode(data, format, opts)
}

// DetectFormat picks a format from the file name, falling back to the first
// significant byte of the content.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}

	return FormatYAML
}

// Decode parses data in the given format.
func Decode(data []byte, format Format, opts Options) ([]bracket.Round, error) {
	unmarshal, err := unmarshalerFor(format)
	if err != nil {
		return nil, err
	}

	if opts.Validate {
		var doc any

		err = unmarshal(data, &doc)
		if err != nil {
			return nil, fmt.Errorf("decode %s rounds: %w", format, err)
		}

		err = Validate(doc)
		if err != nil {
			return nil, err
		}
	}

	var rounds []bracket.Round

	err = unmarshal(data, &rounds)
	if err != nil {
		return nil, fmt.Errorf("decode %s rounds: %w", format, err)
	}

	return rounds, nil
}

func unmarshalerFor(format Format) (func([]byte, any) error, error) {
	switch format {
	case FormatJSON:
		return json.Unmarshal, nil
	case FormatYAML:
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Validate checks a generic document (as produced by encoding/json or yaml.v3)
// against the embedded schema. Every violation is listed in the error.
func Validate(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate rounds: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		messages = append(messages, resultErr.String())
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(messages, "; "))
}

// Encode writes rounds in the given format.
func Encode(w io.Writer, rounds []bracket.Round, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(rounds)
		if err != nil {
			return fmt.Errorf("encode json rounds: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(rounds)
		if err != nil {
			return fmt.Errorf("encode yaml rounds: %w", err)
		}

		err = enc.Close()
		if err != nil {
			return fmt.Errorf("close yaml encoder: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
