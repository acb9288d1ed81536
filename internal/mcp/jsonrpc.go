package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/romuloroldao/precivox/internal/remote"
	"github.com/romuloroldao/precivox/internal/suggest"
)

// protocolVersion is the MCP revision the server speaks.
const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// maxLineBytes bounds one request line. analyze_list may carry a whole
// shopping list inline.
const maxLineBytes = 4 << 20

// Server answers MCP requests over stdio, one JSON-RPC message per line.
// It holds a single analysis session: analyze_list replaces it and every
// other tool reads or mutates it under mu.
type Server struct {
	tools   []toolDef
	engine  *suggest.Engine
	advisor *remote.Advisor
	version string
	log     *slog.Logger

	mu      sync.Mutex
	session *session
}

// Options configures optional server dependencies.
type Options struct {
	Version string
	Advisor *remote.Advisor
	Logger  *slog.Logger
}

// toolDef describes a registered MCP tool.
type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

// toolHandler runs one tool. Errors are reported to the client as tool
// results with isError set, not as JSON-RPC errors.
type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// jsonrpcRequest is an incoming message; a nil ID marks a notification.
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// toolsCallResult carries a tool's JSON output as a single text item.
type toolsCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolListEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer constructs a Server around the analysis engine. When
// opts.Advisor is set, analyze_list goes through the remote service.
func NewServer(engine *suggest.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{
		engine:  engine,
		advisor: opts.Advisor,
		version: opts.Version,
		log:     opts.Logger,
	}
	addTools(s)
	return s
}

func (s *Server) registerTool(def toolDef) {
	s.tools = append(s.tools, def)
}

func (s *Server) lookupTool(name string) (toolDef, bool) {
	for _, t := range s.tools {
		if t.Name == name {
			return t, true
		}
	}
	return toolDef{}, false
}

// Run serves requests from r until ctx is cancelled or r reaches EOF, both
// of which return nil. Read and write failures are returned.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			readErr <- fmt.Errorf("reading request: %w", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			resp, reply := s.handle(ctx, line)
			if !reply {
				continue
			}
			if err := writeResponse(out, resp); err != nil {
				return err
			}
		}
	}
}

// handle decodes one request line and builds its response. reply is false
// for notifications.
func (s *Server) handle(ctx context.Context, line []byte) (resp jsonrpcResponse, reply bool) {
	resp.JSONRPC = "2.0"

	var req jsonrpcRequest
	if err := json.Unmarshal(line, &req); err != nil {
		resp.Error = &jsonrpcError{Code: codeParseError, Message: "Parse error"}
		return resp, true
	}
	if req.ID == nil {
		return resp, false
	}
	resp.ID = req.ID

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "precivox", "version": s.version},
		}
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		entries := make([]toolListEntry, 0, len(s.tools))
		for _, t := range s.tools {
			entries = append(entries, toolListEntry{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		resp.Result = map[string]any{"tools": entries}
	case "tools/call":
		var params toolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &jsonrpcError{Code: codeInvalidParams, Message: "Invalid params"}
			break
		}
		resp.Result = s.callTool(ctx, params)
	default:
		resp.Error = &jsonrpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}
	return resp, true
}

// callTool runs a tool and wraps its output or error as a tool result.
func (s *Server) callTool(ctx context.Context, params toolsCallParams) toolsCallResult {
	tool, ok := s.lookupTool(params.Name)
	if !ok {
		return toolError(fmt.Errorf("unknown tool: %s", params.Name))
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		s.log.Debug("tool call failed", "tool", tool.Name, "session", s.sessionID(), "error", err)
		return toolError(err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return toolError(err)
	}
	return toolsCallResult{Content: []mcpContent{{Type: "text", Text: string(data)}}}
}

// sessionID returns the current session id, or "" before analyze_list.
func (s *Server) sessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.id
}

func toolError(err error) toolsCallResult {
	return toolsCallResult{
		Content: []mcpContent{{Type: "text", Text: err.Error()}},
		IsError: true,
	}
}

// writeResponse writes resp as one line and flushes.
func writeResponse(w *bufio.Writer, resp jsonrpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return w.Flush()
}
