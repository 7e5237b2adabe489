// Package main generates JSON schemas for the documents bracketorder prints.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/Sumatoshi-tech/bracketorder/cmd/bracketorder/commands"
	"github.com/Sumatoshi-tech/bracketorder/internal/service"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

type generator struct {
	title       string
	description string
	build       func() (*jsonschema.Schema, error)
}

var outputDir string

func main() {
	flag.StringVar(&outputDir, "o", "docs/schemas", "Output directory for schemas")
	flag.Parse()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	outputs := map[string]generator{
		"result": {
			"Bracket result", "Output of render -f json and of POST /v1/reconstruct",
			func() (*jsonschema.Schema, error) { return jsonschema.For[bracket.Result](nil) },
		},
		"links": {
			"Advancement links", "Output of pairs -f json and of POST /v1/pairs",
			func() (*jsonschema.Schema, error) { return jsonschema.For[[]bracket.Link](nil) },
		},
		"comparison": {
			"Entrant comparison", "Output of compare -f json and of POST /v1/compare",
			func() (*jsonschema.Schema, error) { return jsonschema.For[service.Comparison](nil) },
		},
		"ranking": {
			"Entrant ranking", "Output of rank -f json",
			func() (*jsonschema.Schema, error) { return jsonschema.For[[]commands.RankedEntrant](nil) },
		},
	}

	for name, gen := range outputs {
		if err := writeSchema(name, gen); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing schema for %s: %v\n", name, err)
			os.Exit(1)
		}

		fmt.Printf("Generated schema for %s\n", name)
	}

	fmt.Println("All schemas generated successfully")
}

func writeSchema(name string, gen generator) error {
	schema, err := gen.build()
	if err != nil {
		return fmt.Errorf("infer schema: %w", err)
	}

	schema.Schema = draft
	schema.Title = gen.title
	schema.Description = gen.description

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	path := filepath.Join(outputDir, name+".json")

	return os.WriteFile(path, data, 0o644)
}
