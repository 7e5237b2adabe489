// Package mcp implements a Model Context Protocol server exposing bracket
// reconstruction as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/service"
	"github.com/Sumatoshi-tech/bracketorder/pkg/version"
)

const (
	serverName = "bracketorder"
	toolCount  = 3
)

// ServerDeps holds injectable dependencies for the MCP server.
type ServerDeps struct {
	// Service runs the reconstructions. Required.
	Service *service.Service

	// Logger is an optional structured logger for the SDK.
	Logger *slog.Logger

	// Metrics counts tool calls. Nil disables per-tool metrics.
	Metrics *observability.Metrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// ValidateSchema checks submitted rounds against the rounds schema.
	ValidateSchema bool
}

// Server wraps the MCP SDK server with the bracket tools.
type Server struct {
	inner    *mcpsdk.Server
	svc      *service.Service
	validate bool

	mu    sync.RWMutex
	tools []string

	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewServer creates an MCP server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    serverName,
		Version: version.Version,
	}, opts)

	srv := &Server{
		inner:    inner,
		svc:      deps.Service,
		validate: deps.ValidateSchema,
		tools:    make([]string, 0, toolCount),
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run serves on stdio until the context is canceled or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolNameReconstruct, reconstructToolDescription, s.handleReconstruct)
	addTool(s, ToolNameCompare, compareToolDescription, s.handleCompare)
	addTool(s, ToolNamePairs, pairsToolDescription, s.handlePairs)
}

func addTool[Input any](
	s *Server, name, description string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, withMetrics(s.metrics, name, withTracing(s.tracer, name, handler)))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// withTracing opens a span per invocation and appends the trace id to the
// response when the span is sampled.
func withTracing[Input any](
	tracer trace.Tracer, toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content, &mcpsdk.TextContent{
				Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String()),
			})
		}

		return result, output, err
	}
}

// withMetrics counts every invocation as an operation. Tool-level failures
// count as failed.
func withMetrics[Input any](
	metrics *observability.Metrics, toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		end := metrics.Begin(ctx, op)

		result, output, err := handler(observability.WithOperation(ctx, op), req, input)
		end(err != nil || (result != nil && result.IsError))

		return result, output, err
	}
}

const (
	reconstructToolDescription = "Reconstruct a tournament bracket from its rounds. " +
		"Returns the entrant ranking, the matches of every round and the advancement links between them. " +
		"Rounds are given as a JSON or YAML round document."

	compareToolDescription = "Tell which of two entrants is placed first in the bracket order " +
		"reconstructed from the given rounds."

	pairsToolDescription = "List the advancement links of the reconstructed bracket " +
		"as from/to match handles in breadth-first order."
)
