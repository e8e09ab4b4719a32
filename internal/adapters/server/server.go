// Package server hosts the grid HTTP API and MCP endpoint on one listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hylla/hoshu/internal/adapters/server/common"
	"github.com/hylla/hoshu/internal/adapters/server/httpapi"
	"github.com/hylla/hoshu/internal/adapters/server/mcpapi"
)

const (
	defaultBindAddress = "127.0.0.1:5437"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"
	shutdownTimeout    = 5 * time.Second
	readyProbeTimeout  = 2 * time.Second
)

// ErrEndpointCollision reports identical API and MCP mount points.
var ErrEndpointCollision = errors.New("api and mcp endpoints must differ")

// ErrMissingGrid reports a server built without a grid service.
var ErrMissingGrid = errors.New("grid dependency is required")

// Config defines serve-mode endpoint configuration.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies carries the grid surface and an optional lifecycle logger.
type Dependencies struct {
	Grid common.GridService
	Logf func(msg string, keyvals ...any)
}

// NewHandler mounts health probes, the REST API and the MCP endpoint on one mux.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Grid == nil {
		return nil, Config{}, ErrMissingGrid
	}

	mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Grid)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Grid))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, probeBody{Status: "ok", Version: cfg.ServerVersion})
	})
	mux.HandleFunc("GET /readyz", readinessHandler(deps.Grid, cfg.ServerVersion))
	mux.Handle(cfg.MCPEndpoint, mcpHandler)
	mux.Handle(cfg.APIEndpoint, api)
	mux.Handle(cfg.APIEndpoint+"/", api)
	return mux, cfg, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	logf := deps.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	ln, err := net.Listen("tcp", cfg.HTTPBind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPBind, err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	logf("grid server listening", "addr", ln.Addr().String(), "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logf("grid server shutting down", "addr", ln.Addr().String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	return nil
}

// probeBody is the health and readiness payload.
type probeBody struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Columns int    `json:"columns,omitempty"`
	Error   string `json:"error,omitempty"`
}

// readinessHandler reports ready once the grid can resolve its columns.
func readinessHandler(grid common.GridService, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()
		cols, err := grid.ListColumns(ctx)
		if err != nil {
			writeProbe(w, http.StatusServiceUnavailable, probeBody{Status: "unavailable", Version: version, Error: err.Error()})
			return
		}
		writeProbe(w, http.StatusOK, probeBody{Status: "ok", Version: version, Columns: len(cols)})
	}
}

func writeProbe(w http.ResponseWriter, status int, body probeBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// normalizeConfig fills defaults and rejects colliding mount points.
func normalizeConfig(cfg Config) (Config, error) {
	if cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind); cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}
	cfg.APIEndpoint = mountPath(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = mountPath(cfg.MCPEndpoint, defaultMCPEndpoint)
	if cfg.APIEndpoint == cfg.MCPEndpoint {
		return Config{}, ErrEndpointCollision
	}
	if cfg.ServerName = strings.TrimSpace(cfg.ServerName); cfg.ServerName == "" {
		cfg.ServerName = "hoshu"
	}
	if cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion); cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg, nil
}

// mountPath canonicalizes an endpoint to "/a/b", falling back when empty or root.
func mountPath(path, fallback string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return fallback
	}
	return "/" + path
}
