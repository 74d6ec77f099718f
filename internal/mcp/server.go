// Package mcp implements the Model Context Protocol server for rocktag.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/normalize"
	"github.com/rocknews/rocktag/internal/pipeline"
	"github.com/rocknews/rocktag/internal/store"
)

// latestRun selects the newest stored run.
const latestRun = "latest"

// Server wraps an MCPServer with rocktag dependencies.
type Server struct {
	mcp         *mcpserver.MCPServer
	engine      *pipeline.Engine
	st          store.Store
	placeholder string
	logger      *slog.Logger
}

// NewServer creates a new MCP server. If engine or st is nil, the tools that
// need it return an error response instead of panicking.
func NewServer(engine *pipeline.Engine, st store.Store, placeholder string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:      engine,
		st:          st,
		placeholder: placeholder,
		logger:      logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"rocktag",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildTagTextTool(), s.handleTagText)
	mcpSrv.AddTool(buildLookupEntityTool(), s.handleLookupEntity)
	mcpSrv.AddTool(buildDictionaryStatsTool(), s.handleDictionaryStats)
	mcpSrv.AddTool(buildRunFeedbackTool(), s.handleRunFeedback)
	mcpSrv.AddTool(buildMaskTextTool(), s.handleMaskText)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleTagText is the exported handler for the "tag_text" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleTagText(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleTagText(ctx, req)
}

// HandleLookupEntity is the exported handler for the "lookup_entity" tool.
func (s *Server) HandleLookupEntity(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleLookupEntity(ctx, req)
}

// HandleDictionaryStats is the exported handler for the "dictionary_stats" tool.
func (s *Server) HandleDictionaryStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleDictionaryStats(ctx, req)
}

// HandleRunFeedback is the exported handler for the "run_feedback" tool.
func (s *Server) HandleRunFeedback(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleRunFeedback(ctx, req)
}

// HandleMaskText is the exported handler for the "mask_text" tool.
func (s *Server) HandleMaskText(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleMaskText(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

func (s *Server) runID(ctx context.Context, id string) (string, error) {
	if id != "" && id != latestRun {
		return id, nil
	}
	run, err := s.st.LatestRun(ctx)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// --- tool definitions ---

func buildTagTextTool() mcpgo.Tool {
	return mcpgo.NewTool("tag_text",
		mcpgo.WithDescription("Find the artists and band members mentioned in a news headline or description."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("Raw text to tag"),
		),
	)
}

func buildLookupEntityTool() mcpgo.Tool {
	return mcpgo.NewTool("lookup_entity",
		mcpgo.WithDescription("Look up an artist or member name in the gazetteer."),
		mcpgo.WithString("name",
			mcpgo.Required(),
			mcpgo.Description("Artist or member name as written"),
		),
	)
}

func buildDictionaryStatsTool() mcpgo.Tool {
	return mcpgo.NewTool("dictionary_stats",
		mcpgo.WithDescription("Get gazetteer sizes and the build report: artists, aliases, members, skipped rows and collisions."),
	)
}

func buildRunFeedbackTool() mcpgo.Tool {
	return mcpgo.NewTool("run_feedback",
		mcpgo.WithDescription("List the confirmed entity names collected by a stored tagging run."),
		mcpgo.WithString("run_id",
			mcpgo.Description("Run ID (default: latest)"),
		),
	)
}

func buildMaskTextTool() mcpgo.Tool {
	return mcpgo.NewTool("mask_text",
		mcpgo.WithDescription("Replace confirmed entity names from a stored run's feedback set with a placeholder."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("Raw text to mask"),
		),
		mcpgo.WithString("run_id",
			mcpgo.Description("Run whose feedback set is used (default: latest)"),
		),
	)
}

// --- tool handlers ---

func (s *Server) handleTagText(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil {
		return mcpgo.NewToolResultError("dictionary is unavailable"), nil
	}
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcpgo.NewToolResultError("text is required and must not be empty"), nil
	}

	normalized := s.engine.Normalizer.Text(text)
	tags := s.engine.Resolver.Resolve(normalized)
	s.logger.Debug("mcp: tagged text", "combined", len(tags.CombinedTags), "members", len(tags.MemberTags))

	return toolResultJSON(map[string]any{
		"normalized_text": normalized,
		"combined_tags":   tags.CombinedTags,
		"member_tags":     tags.MemberTags,
		"recovered":       len(tags.RecoveredArtistTags) > 0,
	})
}

func (s *Server) handleLookupEntity(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil {
		return mcpgo.NewToolResultError("dictionary is unavailable"), nil
	}
	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcpgo.NewToolResultError("name is required and must not be empty"), nil
	}

	key := s.engine.Normalizer.Key(name)
	matches := s.engine.Resolver.Dictionary().Lookup(key)
	if matches == nil {
		matches = []models.EntityMatch{}
	}
	return toolResultJSON(map[string]any{
		"key":     key,
		"found":   len(matches) > 0,
		"matches": matches,
	})
}

func (s *Server) handleDictionaryStats(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil {
		return mcpgo.NewToolResultError("dictionary is unavailable"), nil
	}
	return toolResultJSON(map[string]any{
		"stats":  s.engine.Resolver.Dictionary().Stats(),
		"report": s.engine.Report,
	})
}

func (s *Server) handleRunFeedback(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.st == nil {
		return mcpgo.NewToolResultError("run store is unavailable"), nil
	}
	id, err := s.runID(ctx, req.GetString("run_id", ""))
	if err != nil {
		return storeErrorResult(err), nil
	}
	names, err := s.st.Feedback(ctx, id)
	if err != nil {
		return storeErrorResult(err), nil
	}
	return toolResultJSON(map[string]any{
		"run_id": id,
		"names":  names,
	})
}

func (s *Server) handleMaskText(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.st == nil {
		return mcpgo.NewToolResultError("run store is unavailable"), nil
	}
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcpgo.NewToolResultError("text is required and must not be empty"), nil
	}
	id, err := s.runID(ctx, req.GetString("run_id", ""))
	if err != nil {
		return storeErrorResult(err), nil
	}
	names, err := s.st.Feedback(ctx, id)
	if err != nil {
		return storeErrorResult(err), nil
	}

	m := normalize.NewMasker(names, s.placeholder)
	return toolResultJSON(map[string]any{
		"run_id": id,
		"masked": m.Mask(text),
	})
}

func storeErrorResult(err error) *mcpgo.CallToolResult {
	if errors.Is(err, store.ErrNotFound) {
		return mcpgo.NewToolResultError("run not found")
	}
	return mcpgo.NewToolResultErrorf("run store failed: %s", err.Error())
}
