// ABOUTME: MCP-compatible HTTP server exposing the CRM tool catalog to agents.
// ABOUTME: Implements the SSE transport: stream per session, messages via POST.

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/relaymesh/hubspot-gateway/internal/auth"
	"github.com/relaymesh/hubspot-gateway/internal/session"
	"github.com/relaymesh/hubspot-gateway/internal/tools"
)

// protocolVersion is the MCP revision we advertise in initialize responses.
const protocolVersion = "2024-11-05"

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// MCP-specific types

// MCPToolInfo represents an MCP tool definition.
type MCPToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// MCPListToolsResult is the result for tools/list.
type MCPListToolsResult struct {
	Tools []MCPToolInfo `json:"tools"`
}

// MCPCallToolParams are the params for tools/call.
type MCPCallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// MCPCallToolResult is the result for tools/call.
type MCPCallToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// MCPContent represents content in a tool result.
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Config holds configuration for the MCP server.
type Config struct {
	Sessions *session.Registry
	Catalog  *tools.Catalog
	Invoker  *tools.Invoker
	Logger   *slog.Logger

	// TokenVerifier, when set with RequireAuth, gates the stream and message
	// endpoints behind bearer-token verification.
	TokenVerifier auth.TokenVerifier
	RequireAuth   bool
}

// Server exposes the tool catalog over the MCP SSE transport: clients open a
// long-lived event stream, learn their message endpoint from the initial
// framing, and POST JSON-RPC requests whose responses come back on the stream.
type Server struct {
	sessions    *session.Registry
	catalog     *tools.Catalog
	invoker     *tools.Invoker
	logger      *slog.Logger
	verifier    auth.TokenVerifier
	requireAuth bool
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session registry is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	if cfg.Invoker == nil {
		return nil, errors.New("tool invoker is required")
	}
	if cfg.RequireAuth && cfg.TokenVerifier == nil {
		return nil, errors.New("token verifier required when auth is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		sessions:    cfg.Sessions,
		catalog:     cfg.Catalog,
		invoker:     cfg.Invoker,
		logger:      logger,
		verifier:    cfg.TokenVerifier,
		requireAuth: cfg.RequireAuth,
	}, nil
}

// RegisterRoutes registers the MCP endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/message", s.handleMessage)
}

// authorize enforces bearer-token auth when configured.
func (s *Server) authorize(r *http.Request) error {
	if !s.requireAuth {
		return nil
	}
	token, err := auth.FromRequest(r)
	if err != nil {
		return err
	}
	_, err = s.verifier.Verify(token)
	return err
}

// handleMessage accepts a JSON-RPC message for an existing session. The
// response travels back on the session's event stream; the POST itself is
// only acknowledged.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.authorize(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Bad Request: missing sessionId", http.StatusBadRequest)
		return
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		// No handler runs for an unaddressable message.
		http.Error(w, "Bad Request: unknown session", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		http.Error(w, "Bad Request: failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.pushError(sess, nil, JSONRPCParseError, "invalid JSON")
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if req.JSONRPC != "2.0" {
		s.pushError(sess, req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version")
		w.WriteHeader(http.StatusAccepted)
		return
	}

	isNotification := len(req.ID) == 0 || string(req.ID) == "null"

	s.logger.Debug("MCP request",
		"method", req.Method,
		"is_notification", isNotification,
		"session_id", sessionID,
	)

	// Notifications are accepted without a response.
	if isNotification {
		if !strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(sess, req)
	case "ping":
		s.pushResult(sess, req.ID, map[string]any{})
	case "tools/list":
		s.handleToolsList(sess, req)
	case "tools/call":
		s.handleToolsCall(r, sess, req)
	default:
		s.pushError(sess, req.ID, JSONRPCMethodNotFound, "method not found")
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleInitialize handles the MCP initialize handshake.
func (s *Server) handleInitialize(sess *session.Session, req JSONRPCRequest) {
	s.logger.Info("MCP session initialized", "session_id", sess.ID)

	s.pushResult(sess, req.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "hubspot-gateway",
			"version": "1.0.0",
		},
	})
}

// handleToolsList handles tools/list requests.
func (s *Server) handleToolsList(sess *session.Session, req JSONRPCRequest) {
	catalog := s.catalog.List()
	result := MCPListToolsResult{
		Tools: make([]MCPToolInfo, len(catalog)),
	}
	for i, tool := range catalog {
		result.Tools[i] = MCPToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Schema.JSONSchema(),
		}
	}

	s.logger.Debug("tools/list", "count", len(catalog), "session_id", sess.ID)
	s.pushResult(sess, req.ID, result)
}

// handleToolsCall handles tools/call requests. The invocation runs
// synchronously on the request goroutine; its envelope — success or failure —
// travels back as tool content, with IsError mirroring the envelope's ok.
func (s *Server) handleToolsCall(r *http.Request, sess *session.Session, req JSONRPCRequest) {
	var params MCPCallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.pushError(sess, req.ID, JSONRPCInvalidParams, "invalid params")
			return
		}
	}
	if params.Name == "" {
		s.pushError(sess, req.ID, JSONRPCInvalidParams, "tool name is required")
		return
	}

	s.logger.Debug("tools/call", "tool_name", params.Name, "session_id", sess.ID)

	env := s.invoker.Invoke(r.Context(), params.Name, params.Arguments)

	text, err := json.Marshal(env)
	if err != nil {
		s.pushError(sess, req.ID, JSONRPCInternalError, "failed to encode result")
		return
	}

	ok, _ := env["ok"].(bool)
	s.pushResult(sess, req.ID, MCPCallToolResult{
		Content: []MCPContent{{Type: "text", Text: string(text)}},
		IsError: !ok,
	})
}

// pushResult sends a JSON-RPC success response on the session stream.
func (s *Server) pushResult(sess *session.Session, id json.RawMessage, result any) {
	s.push(sess, JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

// pushError sends a JSON-RPC error response on the session stream.
func (s *Server) pushError(sess *session.Session, id json.RawMessage, code int, message string) {
	s.push(sess, JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &JSONRPCError{Code: code, Message: message}})
}

// push writes one response frame. A session closed mid-flight means the
// client is gone; the response is discarded without error.
func (s *Server) push(sess *session.Session, resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "session_id", sess.ID, "error", err)
		return
	}
	if err := sess.Send("message", string(data)); err != nil {
		if errors.Is(err, session.ErrSessionClosed) {
			s.logger.Debug("discarding response for closed session", "session_id", sess.ID)
			return
		}
		s.logger.Warn("failed to write response to stream", "session_id", sess.ID, "error", err)
	}
}
