// Package tracker records which suggestions of an analysis session are
// applied and keeps the cumulative savings of the applied set.
package tracker

import (
	"math"
	"sort"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/suggest"
)

// MaxSavings is the largest savings amount a tracked suggestion may carry.
// Suggestions outside [0, MaxSavings] are not registered.
const MaxSavings = 1e9

// Tracker holds the applied state of one analysis session. It is owned by a
// single session and is not safe for concurrent use.
//
// Savings are accumulated in cents so that Savings always equals the sum of
// the savings of the applied suggestions exactly.
type Tracker struct {
	known   map[string]suggest.Suggestion
	order   []string
	applied map[string]bool
	cents   int64
}

// KindStats summarizes applied suggestions of one kind.
type KindStats struct {
	Count   int     `json:"count"`
	Savings float64 `json:"savings"`
}

// Stats summarizes the applied state.
type Stats struct {
	Known            int                         `json:"known"`
	Applied          int                         `json:"applied"`
	Savings          float64                     `json:"savings"`
	PotentialSavings float64                     `json:"potential_savings"`
	ByKind           map[suggest.Kind]KindStats `json:"by_kind"`
}

// New creates a tracker for the given suggestions with nothing applied.
func New(suggestions []suggest.Suggestion) *Tracker {
	t := &Tracker{
		known:   make(map[string]suggest.Suggestion),
		applied: make(map[string]bool),
	}
	for _, s := range suggestions {
		t.register(s)
	}
	return t
}

func (t *Tracker) register(s suggest.Suggestion) {
	if s.ID == "" || !(s.Savings >= 0 && s.Savings <= MaxSavings) {
		return
	}
	if _, ok := t.known[s.ID]; ok {
		return
	}
	s.Savings = analyzer.Round2(s.Savings)
	s.Applied = false
	t.known[s.ID] = s
	t.order = append(t.order, s.ID)
}

// toCents converts a currency amount to whole cents.
func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func (t *Tracker) markApplied(id string) bool {
	if t.applied[id] {
		return false
	}
	t.applied[id] = true
	t.cents += toCents(t.known[id].Savings)
	return true
}

func (t *Tracker) unmarkApplied(id string) bool {
	if !t.applied[id] {
		return false
	}
	delete(t.applied, id)
	t.cents -= toCents(t.known[id].Savings)
	return true
}

// Lookup returns the known suggestion with the given id.
func (t *Tracker) Lookup(id string) (suggest.Suggestion, bool) {
	s, ok := t.known[id]
	if ok {
		s.Applied = t.applied[id]
	}
	return s, ok
}

// Suggestions returns the known suggestions in registration order with their
// Applied flag set from the tracker state.
func (t *Tracker) Suggestions() []suggest.Suggestion {
	out := make([]suggest.Suggestion, 0, len(t.order))
	for _, id := range t.order {
		s := t.known[id]
		s.Applied = t.applied[id]
		out = append(out, s)
	}
	return out
}

// Toggle flips the applied state of a suggestion and reports whether it is
// applied afterwards. Unknown ids are ignored.
func (t *Tracker) Toggle(id string) bool {
	if _, ok := t.known[id]; !ok {
		return false
	}
	if t.applied[id] {
		t.unmarkApplied(id)
		return false
	}
	t.markApplied(id)
	return true
}

// ApplyAll marks every given suggestion as applied, registering ones the
// tracker has not seen. Suggestions already applied are not counted again.
// It returns how many suggestions became applied.
func (t *Tracker) ApplyAll(suggestions []suggest.Suggestion) int {
	n := 0
	for _, s := range suggestions {
		t.register(s)
		if _, ok := t.known[s.ID]; !ok {
			continue
		}
		if t.markApplied(s.ID) {
			n++
		}
	}
	return n
}

// RevertAll clears the applied set and resets savings to zero.
func (t *Tracker) RevertAll() {
	t.applied = make(map[string]bool)
	t.cents = 0
}

// Remove un-applies one suggestion. It is a no-op when the suggestion is not
// applied.
func (t *Tracker) Remove(id string) {
	t.unmarkApplied(id)
}

// Reconcile replaces the known suggestion set after the list changed.
// Applied ids that are still present stay applied with their new savings;
// the others are dropped.
func (t *Tracker) Reconcile(suggestions []suggest.Suggestion) {
	previous := t.applied
	t.known = make(map[string]suggest.Suggestion)
	t.order = nil
	t.applied = make(map[string]bool)
	t.cents = 0

	for _, s := range suggestions {
		t.register(s)
	}
	for _, id := range t.order {
		if previous[id] {
			t.markApplied(id)
		}
	}
}

// IsApplied reports whether the suggestion is currently applied.
func (t *Tracker) IsApplied(id string) bool {
	return t.applied[id]
}

// AppliedIDs returns the applied suggestion ids, sorted.
func (t *Tracker) AppliedIDs() []string {
	ids := make([]string, 0, len(t.applied))
	for id := range t.applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Savings returns the cumulative savings of the applied suggestions.
func (t *Tracker) Savings() float64 {
	return float64(t.cents) / 100
}

// SavingsCents returns the cumulative savings in cents.
func (t *Tracker) SavingsCents() int64 {
	return t.cents
}

// Stats returns per-kind counts and savings of the applied suggestions.
func (t *Tracker) Stats() Stats {
	byKind := make(map[suggest.Kind]int64)
	st := Stats{
		Known:   len(t.known),
		Applied: len(t.applied),
		Savings: t.Savings(),
		ByKind:  make(map[suggest.Kind]KindStats),
	}

	var potential int64
	for _, id := range t.order {
		s := t.known[id]
		potential += toCents(s.Savings)
		if !t.applied[id] {
			continue
		}
		ks := st.ByKind[s.Kind]
		ks.Count++
		st.ByKind[s.Kind] = ks
		byKind[s.Kind] += toCents(s.Savings)
	}
	for kind, cents := range byKind {
		ks := st.ByKind[kind]
		ks.Savings = float64(cents) / 100
		st.ByKind[kind] = ks
	}
	st.PotentialSavings = float64(potential) / 100
	return st
}
