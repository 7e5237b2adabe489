package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/bracketorder/internal/mcp"
	"github.com/Sumatoshi-tech/bracketorder/internal/service"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

const semifinalsYAML = `
- round_name: Semifinals
  matches:
    - match_entry_data: [{name: p1}, {name: p2}]
    - match_entry_data: [{name: p3}, {name: p4}]
- round_name: Final
  matches:
    - match_entry_data: [{name: p2, is_winner: true}, {name: p3}]
`

func connect(t *testing.T, deps mcp.ServerDeps) *mcpsdk.ClientSession {
	t.Helper()

	if deps.Service == nil {
		svc, err := service.New(service.Deps{CacheSize: 4})
		require.NoError(t, err)

		deps.Service = svc
	}

	srv := mcp.NewServer(deps)
	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callText(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text, result.IsError
}

func TestServer_ListToolNames(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})
	assert.Equal(t, []string{"bracket_compare", "bracket_pairs", "bracket_reconstruct"}, srv.ListToolNames())
}

func TestServer_ToolsList(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 3)

	for _, tool := range tools.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
}

func TestServer_CallReconstruct(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{ValidateSchema: true})

	text, isErr := callText(t, session, mcp.ToolNameReconstruct, map[string]any{"rounds": semifinalsYAML})
	require.False(t, isErr, text)

	var result bracket.Result
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, result.Order)
	assert.Equal(t, []bracket.Link{{From: "r0m0", To: "r1m0"}, {From: "r0m1", To: "r1m0"}}, result.Links)
}

func TestServer_CallPairs(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	text, isErr := callText(t, session, mcp.ToolNamePairs, map[string]any{"rounds": semifinalsYAML})
	require.False(t, isErr, text)

	var links []bracket.Link
	require.NoError(t, json.Unmarshal([]byte(text), &links))
	assert.Len(t, links, 2)
}

func TestServer_CallCompare(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	text, isErr := callText(t, session, mcp.ToolNameCompare, map[string]any{
		"rounds": semifinalsYAML,
		"a":      "p3",
		"b":      "p2",
	})
	require.False(t, isErr, text)

	var cmp service.Comparison
	require.NoError(t, json.Unmarshal([]byte(text), &cmp))
	assert.Equal(t, 1, cmp.Order)

	text, isErr = callText(t, session, mcp.ToolNameCompare, map[string]any{
		"rounds": semifinalsYAML,
		"a":      "p3",
		"b":      "zz",
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown entrant")
}

func TestServer_ToolErrors(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{ValidateSchema: true})

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"empty rounds", mcp.ToolNameReconstruct, map[string]any{"rounds": ""}, "rounds parameter is required"},
		{"schema", mcp.ToolNameReconstruct, map[string]any{"rounds": "- matches: [{match_entry_data: []}]"}, "does not match schema"},
		{"broken", mcp.ToolNamePairs, map[string]any{
			"rounds": `[{"matches":[{"match_entry_data":[{"name":"a"}]}]},` +
				`{"matches":[{"match_entry_data":[{"name":"b"}]}]}]`,
		}, "broken"},
		{"missing entrant", mcp.ToolNameCompare, map[string]any{"rounds": semifinalsYAML, "a": "p1", "b": ""}, "required"},
	}

	for _, tt := range tests {
		text, isErr := callText(t, session, tt.tool, tt.args)
		assert.True(t, isErr, tt.name)
		assert.Contains(t, text, tt.want, tt.name)
	}
}

func TestServer_TraceIDAppended(t *testing.T) {
	t.Parallel()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	session := connect(t, mcp.ServerDeps{Tracer: tp.Tracer("test")})

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      mcp.ToolNamePairs,
		Arguments: map[string]any{"rounds": semifinalsYAML},
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 2)

	trailer, ok := result.Content[1].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, trailer.Text, "trace_id=")

	ended := spans.Ended()
	require.NotEmpty(t, ended)
	assert.Equal(t, "mcp.bracket_pairs", ended[0].Name())
}
