package remote

import (
	"context"
	"log/slog"
	"math"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/suggest"
)

// Result sources and their confidence.
const (
	SourceRemote = "remote"

	RemoteConfidence = 0.9
	LocalConfidence  = 0.6
)

// Advisor combines the remote service with the local engine. Analytics are
// always computed locally; remote suggestions are merged in when the service
// answers.
type Advisor struct {
	Client *Client
	Engine *suggest.Engine
	Logger *slog.Logger
}

// Analyze never fails: when the service is not configured or errors, the
// local result is returned with reduced confidence and a warning.
func (a *Advisor) Analyze(ctx context.Context, items []list.Item) suggest.Result {
	local := a.Engine.Analyze(items)

	if a.Client == nil {
		local.Confidence = LocalConfidence
		local.Warnings = append(local.Warnings, "Remote analysis is not configured; showing the local analysis")
		return local
	}

	valid, _ := list.Normalize(items)
	resp, err := a.Client.Analyze(ctx, valid)
	if err != nil {
		a.logger().Warn("remote analysis failed, using local analysis", "error", err)
		local.Confidence = LocalConfidence
		local.Warnings = append(local.Warnings, "Remote analysis unavailable; showing the local analysis")
		return local
	}

	merged := append(MapSuggestions(resp.Suggestions, local.Analytics.TotalValue), local.Suggestions...)
	local.Suggestions = suggest.Aggregate(merged, a.Engine.Config())
	local.Source = SourceRemote
	local.Confidence = RemoteConfidence
	local.Insights = append(local.Insights, resp.Analysis.Insights...)
	local.Warnings = append(local.Warnings, resp.Analysis.Warnings...)
	a.logger().Debug("remote analysis merged", "remote", len(resp.Suggestions), "suggestions", len(local.Suggestions))
	return local
}

func (a *Advisor) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// kindFor maps remote suggestion types to local kinds.
var kindFor = map[string]suggest.Kind{
	"price_optimization":  suggest.KindStore,
	"store_change":        suggest.KindStore,
	"quantity_adjustment": suggest.KindQuantity,
	"route_optimization":  suggest.KindRoute,
}

// defaultAction is used when the service omits the action.
var defaultAction = map[suggest.Kind]suggest.ActionKind{
	suggest.KindStore:    suggest.ActionChangeStore,
	suggest.KindQuantity: suggest.ActionIncreaseQuantity,
	suggest.KindRoute:    suggest.ActionOptimizeRoute,
}

// MapSuggestions converts remote suggestions to local ones. Types without a
// local equivalent, suggestions the service marks as not actionable and
// savings that are not a finite amount between 0 and maxSavings (the list
// total) are dropped. Savings are rounded to cents.
func MapSuggestions(remote []Suggestion, maxSavings float64) []suggest.Suggestion {
	var out []suggest.Suggestion
	for _, r := range remote {
		kind, ok := kindFor[r.Type]
		if !ok || !r.Actionable || r.ID == "" {
			continue
		}
		savings := r.Impact.Savings
		if math.IsNaN(savings) || math.IsInf(savings, 0) || savings < 0 || savings > maxSavings {
			continue
		}

		s := suggest.Suggestion{
			ID:               suggest.ID(kind, "remote-"+r.ID),
			Kind:             kind,
			Item:             r.Title,
			Description:      r.Description,
			Savings:          analyzer.Round2(savings),
			TimeSavedMinutes: int(r.Impact.TimeReduction),
			Action:           suggest.Action{Kind: defaultAction[kind]},
		}
		if r.Action != nil {
			if r.Action.Type != "" {
				s.Action.Kind = suggest.ActionKind(r.Action.Type)
			}
			p := r.Action.Parameters
			s.Action.ProductID = p.ProductID
			s.Action.NewStore = p.NewStore
			s.Action.NewPrice = p.NewPrice
			s.Action.NewQuantity = p.NewQuantity
			s.Action.KeepStores = p.KeepStores
			s.SuggestedStore = p.NewStore
			s.SuggestedPrice = p.NewPrice
		}
		out = append(out, s)
	}
	return out
}
