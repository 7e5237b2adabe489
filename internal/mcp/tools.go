package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/bracketorder/internal/roundfile"
	"github.com/Sumatoshi-tech/bracketorder/internal/service"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

// Tool name constants.
const (
	ToolNameReconstruct = "bracket_reconstruct"
	ToolNameCompare     = "bracket_compare"
	ToolNamePairs       = "bracket_pairs"
)

// MaxRoundsInputBytes is the maximum size of an inline round document (8 MB).
const MaxRoundsInputBytes = 8 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRounds indicates the rounds parameter is empty.
	ErrEmptyRounds = errors.New("rounds parameter is required and must not be empty")
	// ErrRoundsTooLarge indicates the rounds document exceeds the size limit.
	ErrRoundsTooLarge = errors.New("rounds input exceeds maximum size")
	// ErrEmptyEntrant indicates a compare call without both entrants.
	ErrEmptyEntrant = errors.New("entrants a and b are required")
)

// ReconstructInput is the input schema for the bracket_reconstruct and
// bracket_pairs tools.
type ReconstructInput struct {
	Format      string `json:"format,omitempty"       jsonschema:"json or yaml (default: detected from the content)"`
	Rounds      string `json:"rounds"                 jsonschema:"round document: a list of rounds, each with matches of entrants"`
	SortMatches bool   `json:"sort_matches,omitempty" jsonschema:"reorder matches by the earliest placed entrant first"`
}

// CompareInput is the input schema for the bracket_compare tool.
type CompareInput struct {
	A           string `json:"a"                      jsonschema:"first entrant name"`
	B           string `json:"b"                      jsonschema:"second entrant name"`
	Format      string `json:"format,omitempty"       jsonschema:"json or yaml (default: detected from the content)"`
	Rounds      string `json:"rounds"                 jsonschema:"round document: a list of rounds, each with matches of entrants"`
	SortMatches bool   `json:"sort_matches,omitempty" jsonschema:"reorder matches by the earliest placed entrant first"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleReconstruct(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ReconstructInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	rounds, err := s.decodeRounds(input.Rounds, input.Format)
	if err != nil {
		return errorResult(err)
	}

	result, err := s.svc.Reconstruct(ctx, rounds, service.Options{SortMatches: input.SortMatches})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(result)
}

func (s *Server) handlePairs(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ReconstructInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	rounds, err := s.decodeRounds(input.Rounds, input.Format)
	if err != nil {
		return errorResult(err)
	}

	result, err := s.svc.Reconstruct(ctx, rounds, service.Options{SortMatches: input.SortMatches})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(result.Links)
}

func (s *Server) handleCompare(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input CompareInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.A == "" || input.B == "" {
		return errorResult(ErrEmptyEntrant)
	}

	rounds, err := s.decodeRounds(input.Rounds, input.Format)
	if err != nil {
		return errorResult(err)
	}

	cmp, err := s.svc.Compare(ctx, rounds, input.A, input.B, service.Options{SortMatches: input.SortMatches})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(cmp)
}

func (s *Server) decodeRounds(doc, format string) ([]bracket.Round, error) {
	if doc == "" {
		return nil, ErrEmptyRounds
	}

	if len(doc) > MaxRoundsInputBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrRoundsTooLarge, len(doc), MaxRoundsInputBytes)
	}

	data := []byte(doc)

	detected := roundfile.Format(format)
	if detected == "" {
		detected = roundfile.DetectFormat("", data)
	}

	rounds, err := roundfile.Decode(data, detected, roundfile.Options{Validate: s.validate})
	if err != nil {
		return nil, fmt.Errorf("decode rounds: %w", err)
	}

	return rounds, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
