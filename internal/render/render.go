// Package render prints reconstruction results as text tables, JSON, YAML or
// an HTML bracket chart.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

// Format names an output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPlot Format = "plot"
)

// ErrUnknownFormat is returned for formats not listed above.
var ErrUnknownFormat = errors.New("unknown output format")

// Options tunes the text renderer.
type Options struct {
	// Color highlights winners and revival entrants.
	Color bool
	// Title heads the HTML chart.
	Title string
}

// Write renders result in the given format.
func Write(w io.Writer, format Format, result bracket.Result, opts Options) error {
	switch format {
	case FormatText:
		return Text(w, result, opts)
	case FormatJSON:
		return JSON(w, result)
	case FormatYAML:
		return YAML(w, result)
	case FormatPlot:
		return Plot(w, result, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// JSON writes value as indented JSON.
func JSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(value)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// YAML writes value as YAML.
func YAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(value)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}

	return nil
}
