package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/romuloroldao/precivox/internal/suggest"
)

// newEmptyServer creates a Server with the default engine and no tools.
func newEmptyServer() *Server {
	s := NewServer(suggest.NewEngine(suggest.DefaultConfig()), Options{Version: "test"})
	s.tools = nil
	return s
}

// runServer starts s.Run in a goroutine piped through pw/pr and returns
// a function that writes a request line and reads the response line.
// Close pw to trigger EOF. The returned cleanup func cancels the context.
func runServer(t *testing.T, s *Server) (
	sendLine func(line string) string,
	closePipe func(),
	cleanup func(),
) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	// Pipe: test writes to pw, server reads from pr.
	pr, pw := io.Pipe()
	// Pipe: server writes to sw, test reads from sr.
	sr, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	sendLine = func(line string) string {
		_, err := io.WriteString(pw, line+"\n")
		if err != nil {
			t.Fatalf("sendLine write: %v", err)
		}

		// Read one response line.
		buf := make([]byte, 1<<16)
		var out strings.Builder
		for {
			n, err := sr.Read(buf)
			if n > 0 {
				out.Write(buf[:n])
				s := out.String()
				if idx := strings.IndexByte(s, '\n'); idx >= 0 {
					return s[:idx]
				}
			}
			if err != nil {
				t.Fatalf("sendLine read: %v", err)
			}
		}
	}

	closePipe = func() {
		_ = pw.Close()
	}

	cleanup = func() {
		cancel()
		_ = pw.Close()
		// Drain done channel.
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after cancel+close")
		}
	}

	return sendLine, closePipe, cleanup
}

// TestRun_Initialize verifies the server responds to "initialize" with the
// correct protocolVersion and serverInfo.name.
func TestRun_Initialize(t *testing.T) {
	s := newEmptyServer()
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	req := `{"jsonrpc":"2.0","id":1,"method":"initialize"}`
	resp := sendLine(req)

	var parsed struct {
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
			ServerInfo      struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if parsed.Result.ProtocolVersion == "" {
		t.Errorf("expected non-empty protocolVersion, got empty string; response: %s", resp)
	}
	if parsed.Result.ServerInfo.Name != "precivox" {
		t.Errorf("expected serverInfo.name == 'precivox', got %q; response: %s",
			parsed.Result.ServerInfo.Name, resp)
	}
}

// TestRun_ToolsList verifies the server responds to "tools/list" with the
// registered tools.
func TestRun_ToolsList(t *testing.T) {
	s := newEmptyServer()
	s.registerTool(toolDef{
		Name:        "test_tool",
		Description: "A test tool",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			return map[string]string{"ok": "true"}, nil
		},
	})

	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	req := `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`
	resp := sendLine(req)

	var parsed struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if len(parsed.Result.Tools) != 1 {
		t.Errorf("expected 1 tool in list, got %d; response: %s",
			len(parsed.Result.Tools), resp)
	}
	for _, tool := range parsed.Result.Tools {
		if tool.Name == "" {
			t.Errorf("tool has empty name; response: %s", resp)
		}
	}
}

// TestRun_UnknownMethod verifies that an unknown method returns JSON-RPC
// error code -32601.
func TestRun_UnknownMethod(t *testing.T) {
	s := newEmptyServer()
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	req := `{"jsonrpc":"2.0","id":3,"method":"nonexistent/method"}`
	resp := sendLine(req)

	var parsed struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if parsed.Error == nil {
		t.Fatalf("expected error in response, got none; response: %s", resp)
	}
	if parsed.Error.Code != -32601 {
		t.Errorf("expected error code -32601, got %d; response: %s", parsed.Error.Code, resp)
	}
}

// TestRun_ParseError verifies a malformed line is answered with -32700 and
// the server keeps serving.
func TestRun_ParseError(t *testing.T) {
	s := newEmptyServer()
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":`)
	if !strings.Contains(resp, `"code":-32700`) {
		t.Errorf("expected parse error, got %s", resp)
	}

	resp = sendLine(`{"jsonrpc":"2.0","id":9,"method":"ping"}`)
	if !strings.Contains(resp, `"id":9`) || strings.Contains(resp, `"error"`) {
		t.Errorf("expected ping result after parse error, got %s", resp)
	}
}

// TestRun_LargeInlineList verifies requests larger than the default scanner
// buffer are accepted.
func TestRun_LargeInlineList(t *testing.T) {
	s := NewServer(suggest.NewEngine(suggest.DefaultConfig()), Options{Version: "test"})
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	var items []string
	for i := 0; i < 1500; i++ {
		items = append(items, fmt.Sprintf(
			`{"product":{"id":"p%d","name":"Produto %d com descrição longa","price":%d,"store":"Mercado %d"},"quantity":1}`,
			i, i, 1+i%50, i%4))
	}
	req := `{"jsonrpc":"2.0","id":10,"method":"tools/call","params":{"name":"analyze_list","arguments":{"items":[` +
		strings.Join(items, ",") + `]}}}`
	if len(req) <= 64*1024 {
		t.Fatalf("request is only %d bytes", len(req))
	}

	resp := sendLine(req)
	if !strings.Contains(resp, `"id":10`) || strings.Contains(resp, `"isError":true`) {
		t.Errorf("unexpected response: %.300s", resp)
	}
}

// TestRun_ToolsCall verifies a tools/call round trip through the real tools,
// including the error result for a call before any analysis.
func TestRun_ToolsCall(t *testing.T) {
	s := NewServer(suggest.NewEngine(suggest.DefaultConfig()), Options{Version: "test"})
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	var parsed struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}

	resp := sendLine(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"applied_state"}}`)
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if !parsed.Result.IsError {
		t.Errorf("expected isError before analyze_list; response: %s", resp)
	}

	req := `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"analyze_list","arguments":{"items":[` +
		`{"product":{"id":"a","name":"Produto A","price":10,"store":"X"},"quantity":1},` +
		`{"product":{"id":"b","name":"Produto B","price":10,"store":"Y"},"quantity":1},` +
		`{"product":{"id":"c","name":"Produto C","price":10,"store":"Z"},"quantity":1}]}}}`
	resp = sendLine(req)
	parsed.Result.IsError = false
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if parsed.Result.IsError || len(parsed.Result.Content) != 1 {
		t.Fatalf("unexpected analyze_list result: %s", resp)
	}

	var analysis AnalyzeResult
	if err := json.Unmarshal([]byte(parsed.Result.Content[0].Text), &analysis); err != nil {
		t.Fatalf("unmarshal tool text: %v", err)
	}
	if analysis.Analytics.TotalStores != 3 {
		t.Errorf("TotalStores = %d, want 3", analysis.Analytics.TotalStores)
	}
}

// TestRun_UnknownTool verifies an unknown tool name yields an error result.
func TestRun_UnknownTool(t *testing.T) {
	s := newEmptyServer()
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"nope"}}`)
	if !strings.Contains(resp, `"isError":true`) || !strings.Contains(resp, "unknown tool: nope") {
		t.Errorf("unexpected response: %s", resp)
	}
}

// TestRun_Ping verifies the ping method answers with an empty result.
func TestRun_Ping(t *testing.T) {
	s := newEmptyServer()
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":"2.0","id":7,"method":"ping"}`)
	if !strings.Contains(resp, `"result":{}`) {
		t.Errorf("unexpected ping response: %s", resp)
	}
}

// TestRun_Notification verifies that a message without an "id" field
// (a JSON-RPC notification) produces no response.
func TestRun_Notification(t *testing.T) {
	s := newEmptyServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	sr, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	// Send a notification (no "id" field).
	notification := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n"
	if _, err := io.WriteString(pw, notification); err != nil {
		t.Fatalf("write notification: %v", err)
	}

	// After writing the notification, attempt to read a response with a short
	// deadline. We expect nothing to be written.
	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 1024)
		n, _ := sr.Read(buf)
		readDone <- buf[:n]
	}()

	select {
	case data := <-readDone:
		t.Errorf("expected no response for notification, but got: %s", data)
	case <-time.After(100 * time.Millisecond):
		// Correct: no response was written within the deadline.
	}

	// Clean up.
	cancel()
	_ = pw.Close()
	_ = sr.Close()
}

// TestRun_ContextCancel verifies that cancelling the context causes Run to
// return nil.
func TestRun_ContextCancel(t *testing.T) {
	s := newEmptyServer()
	ctx, cancel := context.WithCancel(context.Background())

	pr, pw := io.Pipe()
	_, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	// Cancel the context and expect Run to return nil.
	cancel()
	_ = pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Run to return nil on context cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after context cancel")
	}
}

// TestRun_EOFClean verifies that closing the writer side of the input pipe
// causes Run to return nil (clean EOF).
func TestRun_EOFClean(t *testing.T) {
	s := newEmptyServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	_, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	// Close the write side to signal EOF.
	_ = pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Run to return nil on EOF, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after EOF")
	}
}
