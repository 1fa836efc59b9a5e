package aggregate

import (
	"errors"
	"sort"
	"sync"

	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

var ErrNoRows = errors.New("no aggregated rows")

// Aggregator builds per-group tallies from prediction records. Groups are
// discovered lazily. It is safe for concurrent Add calls; each record is
// applied under one lock so a tally is never observed half-updated.
type Aggregator struct {
	mu        sync.Mutex
	tallies   map[string]*types.GroupTally
	finalized bool
}

func New() *Aggregator {
	return &Aggregator{tallies: make(map[string]*types.GroupTally)}
}

// Add panics once Finalize has been called.
func (a *Aggregator) Add(rec types.PredictionRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		panic("aggregate: Add called after Finalize")
	}
	t, ok := a.tallies[rec.SensitiveGroup]
	if !ok {
		t = &types.GroupTally{Group: rec.SensitiveGroup}
		a.tallies[rec.SensitiveGroup] = t
	}
	t.Total++
	if rec.PredictedLabel {
		t.PredictedPositive++
	}
	switch {
	case rec.TrueLabel && rec.PredictedLabel:
		t.ActualPositive++
		t.TruePositive++
	case rec.TrueLabel:
		t.ActualPositive++
		t.FalseNegative++
	case rec.PredictedLabel:
		t.FalsePositive++
	default:
		t.TrueNegative++
	}
}

// Rows reports how many records have been added so far.
func (a *Aggregator) Rows() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, t := range a.tallies {
		n += t.Total
	}
	return n
}

// Finalize freezes the aggregator and returns a copy of the tallies keyed by
// group. It fails with ErrNoRows when nothing was aggregated.
func (a *Aggregator) Finalize() (map[string]types.GroupTally, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finalized = true
	out := make(map[string]types.GroupTally, len(a.tallies))
	rows := 0
	for g, t := range a.tallies {
		out[g] = *t
		rows += t.Total
	}
	if rows == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

// SortedGroups returns the group identifiers of tallies in lexical order.
func SortedGroups(tallies map[string]types.GroupTally) []string {
	groups := make([]string, 0, len(tallies))
	for g := range tallies {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
