package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/suggest"
	"github.com/romuloroldao/precivox/internal/tracker"
)

type analyzeRequest struct {
	Name   string          `json:"name"`
	Items  []list.Item     `json:"items"`
	Config json.RawMessage `json:"config,omitempty"`
}

// sessionView is the client-facing state of a session.
type sessionView struct {
	SessionID   string               `json:"session_id"`
	ListName    string               `json:"list_name"`
	Source      string               `json:"source"`
	Analytics   analyzer.Snapshot    `json:"analytics"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
	Skipped     []list.Issue         `json:"skipped,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
	AppliedIDs  []string             `json:"applied_ids"`
	Savings     float64              `json:"savings"`
	Stats       tracker.Stats        `json:"stats"`
}

type toggleResponse struct {
	tracker.Result
	AppliedIDs   []string `json:"applied_ids"`
	TotalSavings float64  `json:"total_savings"`
}

type batchResponse struct {
	tracker.BatchResult
	AppliedIDs []string `json:"applied_ids"`
	Savings    float64  `json:"savings"`
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func (s *Server) handleHealth(c *gin.Context) {
	remoteState := "disabled"
	if s.opts.Advisor != nil && s.opts.Advisor.Client != nil {
		remoteState = "configured"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  s.opts.Version,
		"time":     time.Now().Format(time.RFC3339),
		"remote":   remoteState,
		"sessions": s.sessions.Len(),
	})
}

// bindAnalyze decodes the request and resolves an optional config override
// on top of the engine's configuration.
func (s *Server) bindAnalyze(c *gin.Context) (analyzeRequest, *suggest.Config, bool) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return req, nil, false
	}

	if len(req.Config) == 0 || string(req.Config) == "null" {
		return req, nil, true
	}
	cfg := s.engine.Config()
	if err := json.Unmarshal(req.Config, &cfg); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid config: %v", err))
		return req, nil, false
	}
	if cfg.MinSavingsThreshold < 0 {
		errorJSON(c, http.StatusBadRequest, "invalid config: min_savings_threshold must not be negative")
		return req, nil, false
	}
	return req, &cfg, true
}

func (s *Server) handleAnalyze(c *gin.Context) {
	req, override, ok := s.bindAnalyze(c)
	if !ok {
		return
	}
	res := s.analyze(c.Request.Context(), req.Items, override)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	req, override, ok := s.bindAnalyze(c)
	if !ok {
		return
	}

	res := s.analyze(c.Request.Context(), req.Items, override)
	valid, _ := list.Normalize(req.Items)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultListName
	}
	sess := s.sessions.Create(name, valid, res)
	s.metrics.sessions.Set(float64(s.sessions.Len()))
	s.log.Info("session opened", "session", sess.ID, "items", len(valid), "suggestions", len(res.Suggestions))

	c.JSON(http.StatusCreated, s.view(sess))
}

// session resolves the :id parameter or writes a 404.
func (s *Server) session(c *gin.Context) (*Session, bool) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		errorJSON(c, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) view(sess *Session) sessionView {
	v := sessionView{
		SessionID: sess.ID,
		ListName:  sess.ListName,
		Source:    sess.Result.Source,
		Analytics: sess.Result.Analytics,
		Skipped:   sess.Result.Skipped,
		Warnings:  sess.Result.Warnings,
	}
	sess.With(func(t *tracker.Tracker) {
		v.Suggestions = t.Suggestions()
		v.AppliedIDs = t.AppliedIDs()
		v.Savings = t.Savings()
		v.Stats = t.Stats()
	})
	if v.AppliedIDs == nil {
		v.AppliedIDs = []string{}
	}
	return v
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.view(sess))
}

func (s *Server) handleCloseSession(c *gin.Context) {
	sess, ok := s.sessions.Delete(c.Param("id"))
	if !ok {
		errorJSON(c, http.StatusNotFound, "session not found")
		return
	}
	s.metrics.sessions.Set(float64(s.sessions.Len()))

	var savings float64
	sess.With(func(t *tracker.Tracker) { savings = t.Savings() })
	runID := s.closeSession(sess, "closed")

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"savings":    savings,
		"run_id":     runID,
	})
}

func (s *Server) handleSessionList(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var (
		items []list.Item
		notes []string
	)
	sess.With(func(t *tracker.Tracker) {
		items, notes = tracker.Materialize(sess.Items, t)
	})
	if notes == nil {
		notes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"name":    sess.ListName,
		"items":   items,
		"changes": notes,
	})
}

func (s *Server) handleToggle(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	id := c.Param("suggestionID")

	var (
		resp  toggleResponse
		found bool
	)
	sess.With(func(t *tracker.Tracker) {
		sg, known := t.Lookup(id)
		if !known {
			return
		}
		found = true
		resp.Result = tracker.ApplySuggestion(t, sg)
		resp.AppliedIDs = t.AppliedIDs()
		resp.TotalSavings = t.Savings()

		switch {
		case resp.Success && resp.Applied:
			s.metrics.observeApplied(sg)
		case resp.Success:
			s.metrics.observeReverted(1)
		}
	})
	if !found {
		errorJSON(c, http.StatusNotFound, "suggestion not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleApplyAll(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	var resp batchResponse
	sess.With(func(t *tracker.Tracker) {
		all := t.Suggestions()
		resp.BatchResult = tracker.ApplyAll(t, all)
		for _, sg := range all {
			if !sg.Applied && t.IsApplied(sg.ID) {
				s.metrics.observeApplied(sg)
			}
		}
		resp.AppliedIDs = t.AppliedIDs()
		resp.Savings = t.Savings()
	})
	if resp.AppliedIDs == nil {
		resp.AppliedIDs = []string{}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRevert(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.With(func(t *tracker.Tracker) {
		s.metrics.observeReverted(len(t.AppliedIDs()))
		t.RevertAll()
	})
	c.JSON(http.StatusOK, s.view(sess))
}

func (s *Server) handleRemoveApplied(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	id := c.Param("suggestionID")
	sess.With(func(t *tracker.Tracker) {
		if t.IsApplied(id) {
			s.metrics.observeReverted(1)
		}
		t.Remove(id)
	})
	c.JSON(http.StatusOK, s.view(sess))
}
