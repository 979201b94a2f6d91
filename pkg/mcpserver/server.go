// Package mcpserver exposes collection listing and token export as MCP tools,
// so that coding agents can pull design tokens straight into a project.
package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	figmatokens "github.com/hellenic-development/figma-tokens"
	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/inventory"
	"github.com/hellenic-development/figma-tokens/pkg/logging"
	"github.com/hellenic-development/figma-tokens/pkg/source"
)

// Defaults fill in tool arguments the caller leaves out.
type Defaults struct {
	Collections []string
	Formats     []string
	Types       []string
}

// Server is an MCP server over one variable source.
type Server struct {
	mcpServer *server.MCPServer
	src       source.Source
	opts      figmatokens.Options
	defaults  Defaults
	title     string
}

// NewServer creates a server exporting from src. title names the file in
// listings.
func NewServer(src source.Source, title string, opts figmatokens.Options, defaults Defaults) *Server {
	s := &Server{
		src:      src,
		opts:     opts,
		defaults: defaults,
		title:    title,
	}

	s.mcpServer = server.NewMCPServer(
		"figma-tokens",
		figma.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: listCollectionsTool(), Handler: s.handleListCollections},
		server.ServerTool{Tool: exportTokensTool(), Handler: s.handleExportTokens},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func listCollectionsTool() mcp.Tool {
	return mcp.NewTool("list_collections",
		mcp.WithDescription("List the variable collections of the Figma file with their modes and token counts"),
	)
}

func exportTokensTool() mcp.Tool {
	return mcp.NewTool("export_tokens",
		mcp.WithDescription("Export variables as design tokens and return the generated files"),
		mcp.WithString("collections",
			mcp.Description("Comma-separated collection IDs (default: configured collections, else all)"),
		),
		mcp.WithString("formats",
			mcp.Description("Comma-separated formats: css, swift, android, flutter, w3c, tailwind"),
		),
		mcp.WithString("types",
			mcp.Description("Comma-separated token types: color, string, boolean, number"),
		),
	)
}

func (s *Server) handleListCollections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cols, err := figmatokens.ListCollections(ctx, s.src)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list collections: %v", err)), nil
	}
	return mcp.NewToolResultText(inventory.Markdown(cols, s.title)), nil
}

func (s *Server) handleExportTokens(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := figmatokens.Request{
		CollectionIDs: listArg(request, "collections", s.defaults.Collections),
		Formats:       listArg(request, "formats", s.defaults.Formats),
		TokenTypes:    listArg(request, "types", s.defaults.Types),
	}

	if len(req.CollectionIDs) == 0 {
		cols, err := figmatokens.ListCollections(ctx, s.src)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list collections: %v", err)), nil
		}
		for _, c := range cols {
			req.CollectionIDs = append(req.CollectionIDs, c.ID)
		}
	}

	var rec host.Recorder
	res, err := figmatokens.Export(ctx, s.src, &rec, req, s.opts)
	if err != nil {
		logging.OrNop(s.opts.Logger).Debug("mcp export failed", zap.Error(err))
		return mcp.NewToolResultError(lastNotice(&rec, err)), nil
	}

	return mcp.NewToolResultText(filesMarkdown(lastNotice(&rec, nil), res)), nil
}

// listArg reads a comma-separated argument, falling back to def when absent.
func listArg(request mcp.CallToolRequest, key string, def []string) []string {
	if v := figmatokens.ParseList(request.GetString(key, "")); len(v) > 0 {
		return v
	}
	return def
}

// lastNotice is the final notification of a run, or err's text.
func lastNotice(rec *host.Recorder, err error) string {
	notes := rec.Notifications()
	if len(notes) > 0 {
		return notes[len(notes)-1].Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func filesMarkdown(summary string, res *figmatokens.Result) string {
	var sb strings.Builder

	sb.WriteString(summary + "\n")
	for _, f := range res.Files {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", f.Filename))
		sb.WriteString(fmt.Sprintf("```%s\n", strings.TrimPrefix(filepath.Ext(f.Filename), ".")))
		sb.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
	}

	if n := res.Run.Stats.Unresolved; n > 0 {
		sb.WriteString(fmt.Sprintf("\n%d variable(s) skipped: unresolved alias.\n", n))
	}
	for _, c := range res.Run.Collisions {
		sb.WriteString(fmt.Sprintf("\n%q renamed to %s: name already taken.\n", c.Name, strings.Join(c.Stored, "/")))
	}

	return sb.String()
}
