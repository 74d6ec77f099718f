package mcp_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rocktagmcp "github.com/rocknews/rocktag/internal/mcp"
	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/pipeline"
	"github.com/rocknews/rocktag/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMCPServer(t *testing.T) (*rocktagmcp.Server, *store.MemoryStore) {
	t.Helper()
	p := pipeline.New(pipeline.DefaultConfig(), quietLogger())
	engine, err := p.Prepare(pipeline.Tables{
		Artists: []models.ArtistRow{{Name: "Metallica"}, {Name: "The Smashing Pumpkins"}, {Name: "Led Zeppelin"}},
		Members: []models.MemberRow{{Description: "Robert Plant", Artist: "Led Zeppelin"}},
	})
	require.NoError(t, err)
	ms := store.NewMemoryStore()
	return rocktagmcp.NewServer(engine, ms, "", quietLogger()), ms
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decodeResult(t *testing.T, result *mcpgo.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "tool returned error: %s", textContent(t, result))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &out))
	return out
}

func TestMCPTagText(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleTagText(context.Background(), makeReq("tag_text", map[string]any{
		"text": "Smashing Pumpkins and Robert Plant share a bill",
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)

	assert.Equal(t, []any{"Led Zeppelin", "The Smashing Pumpkins"}, out["combined_tags"])
	assert.Equal(t, []any{"Robert Plant"}, out["member_tags"])
	assert.Equal(t, true, out["recovered"])
}

func TestMCPTagText_EmptyText(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleTagText(context.Background(), makeReq("tag_text", map[string]any{"text": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPTagText_NoMatch(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleTagText(context.Background(), makeReq("tag_text", map[string]any{"text": "weather report"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, []any{}, out["combined_tags"])
	assert.Equal(t, []any{}, out["member_tags"])
}

func TestMCPLookupEntity(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleLookupEntity(context.Background(), makeReq("lookup_entity", map[string]any{"name": "ROBERT PLANT"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "robert plant", out["key"])
	assert.Equal(t, true, out["found"])

	matches, ok := out["matches"].([]any)
	require.True(t, ok)
	require.Len(t, matches, 1)
	m := matches[0].(map[string]any)
	assert.Equal(t, "member", m["kind"])
	assert.Equal(t, "Led Zeppelin", m["owner_artist"])

	result, err = srv.HandleLookupEntity(context.Background(), makeReq("lookup_entity", map[string]any{"name": "Nobody"}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, false, out["found"])
	assert.Equal(t, []any{}, out["matches"])
}

func TestMCPDictionaryStats(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleDictionaryStats(context.Background(), makeReq("dictionary_stats", nil))
	require.NoError(t, err)
	out := decodeResult(t, result)

	stats := out["stats"].(map[string]any)
	assert.InDelta(t, 3, stats["artists"], 0)
	assert.InDelta(t, 1, stats["aliases"], 0)
	assert.InDelta(t, 1, stats["members"], 0)
	assert.Equal(t, "the", stats["article"])
}

func TestMCPRunFeedbackAndMask(t *testing.T) {
	srv, ms := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleRunFeedback(ctx, makeReq("run_feedback", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError, "no runs stored yet")

	run := models.Run{ID: "run-1", CreatedAt: time.Now()}
	require.NoError(t, ms.SaveRun(ctx, run, nil, []string{"led zeppelin", "robert plant"}))

	result, err = srv.HandleRunFeedback(ctx, makeReq("run_feedback", map[string]any{"run_id": "latest"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "run-1", out["run_id"])
	assert.Equal(t, []any{"led zeppelin", "robert plant"}, out["names"])

	result, err = srv.HandleMaskText(ctx, makeReq("mask_text", map[string]any{
		"text": "Robert Plant says Led Zeppelin will not tour",
	}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, "bandname says bandname will not tour", out["masked"])

	result, err = srv.HandleMaskText(ctx, makeReq("mask_text", map[string]any{"text": "x", "run_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPNilDependencies(t *testing.T) {
	srv := rocktagmcp.NewServer(nil, nil, "", quietLogger())
	ctx := context.Background()

	for name, call := range map[string]func() (*mcpgo.CallToolResult, error){
		"tag_text": func() (*mcpgo.CallToolResult, error) {
			return srv.HandleTagText(ctx, makeReq("tag_text", map[string]any{"text": "x"}))
		},
		"lookup_entity": func() (*mcpgo.CallToolResult, error) {
			return srv.HandleLookupEntity(ctx, makeReq("lookup_entity", map[string]any{"name": "x"}))
		},
		"dictionary_stats": func() (*mcpgo.CallToolResult, error) {
			return srv.HandleDictionaryStats(ctx, makeReq("dictionary_stats", nil))
		},
		"run_feedback": func() (*mcpgo.CallToolResult, error) { return srv.HandleRunFeedback(ctx, makeReq("run_feedback", nil)) },
		"mask_text": func() (*mcpgo.CallToolResult, error) {
			return srv.HandleMaskText(ctx, makeReq("mask_text", map[string]any{"text": "x"}))
		},
	} {
		result, err := call()
		require.NoError(t, err, name)
		assert.True(t, result.IsError, name)
	}
	assert.NotNil(t, srv.MCPServer())
}
