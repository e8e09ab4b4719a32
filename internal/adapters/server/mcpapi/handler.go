// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/hoshu/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the grid tools.
func NewHandler(cfg Config, grid common.GridService) (*Handler, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerReadTools(mcpSrv, grid)
	registerClipboardTools(mcpSrv, grid)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "hoshu"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerReadTools registers list_records, list_columns and list_changes.
func registerReadTools(srv *mcpserver.MCPServer, grid common.GridService) {
	srv.AddTool(
		mcp.NewTool(
			"hoshu.list_records",
			mcp.WithDescription("Return every record in tree order with display text per column and a state hash."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			sheet, err := grid.ListRecords(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(sheet)
			if err != nil {
				return nil, fmt.Errorf("encode list_records result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hoshu.list_columns",
			mcp.WithDescription("Return the ordered grid columns with their value types."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columns, err := grid.ListColumns(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"columns": columns})
			if err != nil {
				return nil, fmt.Errorf("encode list_columns result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hoshu.list_changes",
			mcp.WithDescription("List recent record changes, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum rows (default 50)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			changes, err := grid.ListChanges(ctx, req.GetInt("limit", 0))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"changes": changes})
			if err != nil {
				return nil, fmt.Errorf("encode list_changes result: %w", err)
			}
			return result, nil
		},
	)
}

// registerClipboardTools registers copy_range and paste_text.
func registerClipboardTools(srv *mcpserver.MCPServer, grid common.GridService) {
	srv.AddTool(
		mcp.NewTool(
			"hoshu.copy_range",
			mcp.WithDescription("Copy a rectangular range as tab-separated interchange text."),
			mcp.WithString("start_row_id", mcp.Required(), mcp.Description("Row id of the first corner")),
			mcp.WithString("start_column_id", mcp.Required(), mcp.Description("Column id of the first corner")),
			mcp.WithString("end_row_id", mcp.Description("Row id of the opposite corner (defaults to start)")),
			mcp.WithString("end_column_id", mcp.Description("Column id of the opposite corner (defaults to start)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			startRow, err := req.RequireString("start_row_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			startCol, err := req.RequireString("start_column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			copied, err := grid.CopyRange(ctx, common.CopyRangeRequest{
				Start: common.CellAddress{RowID: startRow, ColumnID: startCol},
				End: common.CellAddress{
					RowID:    req.GetString("end_row_id", ""),
					ColumnID: req.GetString("end_column_id", ""),
				},
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(copied)
			if err != nil {
				return nil, fmt.Errorf("encode copy_range result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hoshu.paste_text",
			mcp.WithDescription("Validate and paste tab-separated text at an anchor cell. Use dry_run to validate only."),
			mcp.WithString("anchor_row_id", mcp.Required(), mcp.Description("Row id of the top-left target cell")),
			mcp.WithString("anchor_column_id", mcp.Required(), mcp.Description("Column id of the top-left target cell")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Rows separated by newlines, cells by tabs")),
			mcp.WithBoolean("dry_run", mcp.Description("Validate without saving")),
			mcp.WithString("actor_id", mcp.Description("Caller identity recorded in the change log")),
			mcp.WithString("actor_type", mcp.Description("user|agent|system"), mcp.Enum("user", "agent", "system")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rowID, err := req.RequireString("anchor_row_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			colID, err := req.RequireString("anchor_column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			text, err := req.RequireString("text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			actorType := req.GetString("actor_type", "")
			if actorType == "" {
				actorType = "agent"
			}
			pasted, err := grid.PasteText(ctx, common.PasteTextRequest{
				Anchor: common.CellAddress{RowID: rowID, ColumnID: colID},
				Text:   text,
				DryRun: req.GetBool("dry_run", false),
				Actor: common.ActorTuple{
					ActorID:   req.GetString("actor_id", "mcp-agent"),
					ActorType: actorType,
				},
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(pasted)
			if err != nil {
				return nil, fmt.Errorf("encode paste_text result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrReadOnly):
		return mcp.NewToolResultError("read_only: " + err.Error())
	case errors.Is(err, common.ErrPasteBlocked):
		return mcp.NewToolResultError("paste_blocked: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
