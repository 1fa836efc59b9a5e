package fairness

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/ogulcanaydogan/fairness-check/internal/aggregate"
	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

var ErrEmpty = errors.New("fairness metrics require at least one row")

// Compute returns the fairness metrics in a fixed order. Tallies are read
// only. A metric that lacks two groups with usable data is reported as not
// computable instead of defaulting to a perfect score.
func Compute(tallies map[string]types.GroupTally) ([]types.MetricResult, error) {
	if totalRows(tallies) == 0 {
		return nil, ErrEmpty
	}
	groups := aggregate.SortedGroups(tallies)

	selection := make([]float64, 0, len(groups))
	for _, g := range groups {
		if rate, ok := tallies[g].SelectionRate(); ok {
			selection = append(selection, rate)
		}
	}

	tpr := make([]float64, 0, len(groups))
	excluded := make([]string, 0)
	for _, g := range groups {
		if rate, ok := tallies[g].TruePositiveRate(); ok {
			tpr = append(tpr, rate)
			continue
		}
		excluded = append(excluded, g)
	}

	return []types.MetricResult{
		spread(types.MetricDemographicParityDifference, selection, ""),
		parityRatio(selection),
		spread(types.MetricEqualOpportunityDifference, tpr, excludedDetail(excluded)),
	}, nil
}

// Accuracy is the share of correctly predicted rows across all groups.
func Accuracy(tallies map[string]types.GroupTally) (float64, error) {
	total := totalRows(tallies)
	if total == 0 {
		return 0, ErrEmpty
	}
	correct := 0
	for _, t := range tallies {
		correct += t.Correct()
	}
	return float64(correct) / float64(total), nil
}

// Summaries reports per-group rates in group order.
func Summaries(tallies map[string]types.GroupTally) []types.GroupSummary {
	groups := aggregate.SortedGroups(tallies)
	out := make([]types.GroupSummary, 0, len(groups))
	for _, g := range groups {
		t := tallies[g]
		s := types.GroupSummary{Group: g, Total: t.Total, ActualPositive: t.ActualPositive}
		if rate, ok := t.SelectionRate(); ok {
			s.SelectionRate = types.Float(rate)
			s.Accuracy = types.Float(float64(t.Correct()) / float64(t.Total))
		}
		if rate, ok := t.TruePositiveRate(); ok {
			s.TruePositiveRate = types.Float(rate)
		}
		out = append(out, s)
	}
	return out
}

func spread(name string, rates []float64, detail string) types.MetricResult {
	if len(rates) < 2 {
		return notComputable(name, len(rates), detail)
	}
	lo, hi := bounds(rates)
	return types.MetricResult{Name: name, Value: types.Float(hi - lo), Status: types.StatusComputed, Detail: detail}
}

func parityRatio(rates []float64) types.MetricResult {
	name := types.MetricDemographicParityRatio
	if len(rates) < 2 {
		return notComputable(name, len(rates), "")
	}
	lo, hi := bounds(rates)
	if hi == 0 {
		// Every group sits at zero, which is parity.
		return types.MetricResult{Name: name, Value: types.Float(1), Status: types.StatusComputed, Detail: "no group received a positive prediction"}
	}
	return types.MetricResult{Name: name, Value: types.Float(lo / hi), Status: types.StatusComputed}
}

func bounds(rates []float64) (float64, float64) {
	// Min and Max only fail on empty input, which callers rule out.
	lo, _ := stats.Min(rates)
	hi, _ := stats.Max(rates)
	return lo, hi
}

func notComputable(name string, usable int, detail string) types.MetricResult {
	msg := fmt.Sprintf("requires at least two groups with usable data, got %d", usable)
	if detail != "" {
		msg += "; " + detail
	}
	return types.MetricResult{Name: name, Status: types.StatusNotComputable, Detail: msg}
}

func excludedDetail(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	sort.Strings(groups)
	return "excluded groups without positive labels: " + strings.Join(groups, ", ")
}

func totalRows(tallies map[string]types.GroupTally) int {
	n := 0
	for _, t := range tallies {
		n += t.Total
	}
	return n
}
