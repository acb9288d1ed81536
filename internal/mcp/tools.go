package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/suggest"
	"github.com/romuloroldao/precivox/internal/tracker"
)

// errNoSession is returned by the apply tools before any list was analyzed.
var errNoSession = errors.New("no list analyzed yet; call analyze_list first")

// session is the analysis the apply tools act on.
type session struct {
	id      string
	name    string
	items   []list.Item
	result  suggest.Result
	tracker *tracker.Tracker
}

// AnalyzeResult is returned by analyze_list.
type AnalyzeResult struct {
	SessionID   string               `json:"session_id"`
	ListName    string               `json:"list_name"`
	Source      string               `json:"source"`
	Analytics   analyzer.Snapshot    `json:"analytics"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
	Skipped     []list.Issue         `json:"skipped,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// AppliedStateResult describes the applied set of the current session.
type AppliedStateResult struct {
	SessionID  string        `json:"session_id"`
	AppliedIDs []string      `json:"applied_ids"`
	Savings    float64       `json:"savings"`
	Stats      tracker.Stats `json:"stats"`
}

// ToggleResult is returned by toggle_suggestion.
type ToggleResult struct {
	tracker.Result
	AppliedIDs   []string `json:"applied_ids"`
	TotalSavings float64  `json:"total_savings"`
}

// OptimizedListResult is the list with the applied suggestions carried out.
type OptimizedListResult struct {
	ListName string      `json:"list_name"`
	Items    []list.Item `json:"items"`
	Changes  []string    `json:"changes"`
}

var (
	noArgsSchema  = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	idSchema      = json.RawMessage(`{"type":"object","properties":{"id":{"type":"string","description":"Suggestion id as returned by analyze_list"}},"required":["id"],"additionalProperties":false}`)
	analyzeSchema = json.RawMessage(`{"type":"object","properties":{"name":{"type":"string","description":"List name"},"path":{"type":"string","description":"Path to a JSON or YAML list file"},"items":{"type":"array","description":"List items: {product:{id,name,price,store,category?,promotion?,distance_km?},quantity}","items":{"type":"object"}}},"additionalProperties":false}`)
)

// addTools registers the shopping-list tools on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "analyze_list",
		Description: "Analyze a shopping list and return analytics plus ranked savings suggestions. Starts a new session.",
		InputSchema: analyzeSchema,
		Handler:     s.handleAnalyzeList,
	})
	s.registerTool(toolDef{
		Name:        "toggle_suggestion",
		Description: "Apply a suggestion, or revert it when it is already applied.",
		InputSchema: idSchema,
		Handler:     s.handleToggleSuggestion,
	})
	s.registerTool(toolDef{
		Name:        "apply_all_suggestions",
		Description: "Apply every suggestion of the current session.",
		InputSchema: noArgsSchema,
		Handler:     s.handleApplyAll,
	})
	s.registerTool(toolDef{
		Name:        "revert_suggestions",
		Description: "Revert all applied suggestions and reset savings to zero.",
		InputSchema: noArgsSchema,
		Handler:     s.handleRevert,
	})
	s.registerTool(toolDef{
		Name:        "remove_suggestion",
		Description: "Un-apply one suggestion, subtracting its savings.",
		InputSchema: idSchema,
		Handler:     s.handleRemove,
	})
	s.registerTool(toolDef{
		Name:        "applied_state",
		Description: "Applied suggestion ids, cumulative savings and per-kind stats of the current session.",
		InputSchema: noArgsSchema,
		Handler:     s.handleAppliedState,
	})
	s.registerTool(toolDef{
		Name:        "optimized_list",
		Description: "The shopping list with the applied suggestions carried out.",
		InputSchema: noArgsSchema,
		Handler:     s.handleOptimizedList,
	})
}

type analyzeArgs struct {
	Name  string      `json:"name"`
	Path  string      `json:"path"`
	Items []list.Item `json:"items"`
}

type idArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleAnalyzeList(ctx context.Context, args json.RawMessage) (any, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	name := strings.TrimSpace(a.Name)
	items := a.Items
	if a.Path != "" {
		if len(a.Items) > 0 {
			return nil, errors.New("pass either path or items, not both")
		}
		sl, err := list.Load(a.Path)
		if err != nil {
			return nil, err
		}
		items = sl.Items
		if name == "" {
			name = sl.Name
		}
	}
	if name == "" {
		name = "list"
	}

	var res suggest.Result
	if s.advisor != nil {
		res = s.advisor.Analyze(ctx, items)
	} else {
		res = s.engine.Analyze(items)
	}
	valid, _ := list.Normalize(items)

	sess := &session{
		id:      uuid.NewString(),
		name:    name,
		items:   valid,
		result:  res,
		tracker: tracker.New(res.Suggestions),
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	s.log.Debug("list analyzed", "session", sess.id, "items", len(valid), "suggestions", len(res.Suggestions))
	return AnalyzeResult{
		SessionID:   sess.id,
		ListName:    sess.name,
		Source:      sess.result.Source,
		Analytics:   sess.result.Analytics,
		Suggestions: sess.result.Suggestions,
		Skipped:     sess.result.Skipped,
		Warnings:    sess.result.Warnings,
	}, nil
}

// withSession runs fn on the current session under the server lock.
func (s *Server) withSession(fn func(sess *session) (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, errNoSession
	}
	return fn(s.session)
}

func parseID(args json.RawMessage) (string, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(a.ID) == "" {
		return "", errors.New("id is required")
	}
	return a.ID, nil
}

func (s *Server) handleToggleSuggestion(_ context.Context, args json.RawMessage) (any, error) {
	id, err := parseID(args)
	if err != nil {
		return nil, err
	}
	return s.withSession(func(sess *session) (any, error) {
		sg, ok := sess.tracker.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown suggestion %q", id)
		}
		res := tracker.ApplySuggestion(sess.tracker, sg)
		return ToggleResult{
			Result:       res,
			AppliedIDs:   nonNil(sess.tracker.AppliedIDs()),
			TotalSavings: sess.tracker.Savings(),
		}, nil
	})
}

func (s *Server) handleApplyAll(_ context.Context, _ json.RawMessage) (any, error) {
	return s.withSession(func(sess *session) (any, error) {
		return tracker.ApplyAll(sess.tracker, sess.tracker.Suggestions()), nil
	})
}

func (s *Server) handleRevert(_ context.Context, _ json.RawMessage) (any, error) {
	return s.withSession(func(sess *session) (any, error) {
		sess.tracker.RevertAll()
		return appliedState(sess), nil
	})
}

func (s *Server) handleRemove(_ context.Context, args json.RawMessage) (any, error) {
	id, err := parseID(args)
	if err != nil {
		return nil, err
	}
	return s.withSession(func(sess *session) (any, error) {
		sess.tracker.Remove(id)
		return appliedState(sess), nil
	})
}

func (s *Server) handleAppliedState(_ context.Context, _ json.RawMessage) (any, error) {
	return s.withSession(func(sess *session) (any, error) {
		return appliedState(sess), nil
	})
}

func (s *Server) handleOptimizedList(_ context.Context, _ json.RawMessage) (any, error) {
	return s.withSession(func(sess *session) (any, error) {
		items, changes := tracker.Materialize(sess.items, sess.tracker)
		return OptimizedListResult{
			ListName: sess.name,
			Items:    items,
			Changes:  nonNil(changes),
		}, nil
	})
}

func appliedState(sess *session) AppliedStateResult {
	return AppliedStateResult{
		SessionID:  sess.id,
		AppliedIDs: nonNil(sess.tracker.AppliedIDs()),
		Savings:    sess.tracker.Savings(),
		Stats:      sess.tracker.Stats(),
	}
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
