// Package httpapi serves the grid over JSON REST.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/hoshu/internal/adapters/server/common"
)

// maxRequestBodyBytes caps request bodies.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	grid common.GridService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the grid service.
func NewHandler(grid common.GridService) *Handler {
	return &Handler{grid: grid}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.grid == nil {
		fail(w, http.StatusServiceUnavailable, "service_unavailable", "grid service is not configured")
		return
	}
	route, ok := routes[normalizePath(r.URL.Path)]
	if !ok {
		fail(w, http.StatusNotFound, "not_found", "endpoint not found")
		return
	}
	if r.Method != route.method {
		writeMethodNotAllowed(w, route.method)
		return
	}
	route.handle(h, w, r)
}

// route binds one path to its method and handler.
type route struct {
	method string
	handle func(*Handler, http.ResponseWriter, *http.Request)
}

var routes = map[string]route{
	"records":         {method: http.MethodGet, handle: (*Handler).handleListRecords},
	"columns":         {method: http.MethodGet, handle: (*Handler).handleListColumns},
	"changes":         {method: http.MethodGet, handle: (*Handler).handleListChanges},
	"clipboard/copy":  {method: http.MethodPost, handle: (*Handler).handleCopy},
	"clipboard/paste": {method: http.MethodPost, handle: (*Handler).handlePaste},
}

// handleListRecords serves GET `/records`.
func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.grid.ListRecords(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

// handleListColumns serves GET `/columns`.
func (h *Handler) handleListColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := h.grid.ListColumns(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": columns})
}

// handleListChanges serves GET `/changes?limit=n`.
func (h *Handler) handleListChanges(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			fail(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	changes, err := h.grid.ListChanges(r.Context(), limit)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": changes})
}

// handleCopy serves POST `/clipboard/copy`.
func (h *Handler) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req common.CopyRangeRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.grid.CopyRange(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePaste serves POST `/clipboard/paste`. Blocked pastes still return the
// validation report alongside the error envelope.
func (h *Handler) handlePaste(w http.ResponseWriter, r *http.Request) {
	var req common.PasteTextRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.grid.PasteText(r.Context(), req)
	if errors.Is(err, common.ErrPasteBlocked) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorEnvelope{Error: APIError{
			Code:    "paste_blocked",
			Message: err.Error(),
			Context: map[string]any{"result": result},
		}})
		return
	}
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// normalizePath strips surrounding slashes for route lookup.
func normalizePath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// errorStatuses maps adapter sentinels to status and code, first match wins.
var errorStatuses = []struct {
	target error
	status int
	code   string
	hint   string
}{
	{common.ErrReadOnly, http.StatusConflict, "read_only", "Set grid.read_only = false to allow edits."},
	{common.ErrPasteBlocked, http.StatusUnprocessableEntity, "paste_blocked", ""},
	{common.ErrNotFound, http.StatusNotFound, "not_found", ""},
	{common.ErrInvalidRequest, http.StatusBadRequest, "invalid_request", ""},
}

// writeErrorFrom writes the envelope for err, defaulting to internal_error.
func writeErrorFrom(w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	for _, m := range errorStatuses {
		if errors.Is(err, m.target) {
			writeJSON(w, m.status, ErrorEnvelope{Error: APIError{Code: m.code, Message: err.Error(), Hint: m.hint}})
			return
		}
	}
	fail(w, http.StatusInternalServerError, "internal_error", err.Error())
}

// writeMethodNotAllowed writes a 405 listing the allowed methods.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func fail(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: APIError{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorEnvelope{Error: APIError{Code: "encode_error", Message: err.Error()}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// decodeJSONBody decodes exactly one JSON object with no unknown fields.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if dec.More() {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("request canceled: %w", err)
	}
	return nil
}
