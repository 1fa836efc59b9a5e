package verdict

import (
	"math"

	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

const (
	ExitPass         = 0
	ExitFairnessFail = 10
	ExitConfigError  = 11
	ExitTotalFailure = 12
	ExitInterrupted  = 13
	ExitDatasetError = 14
)

const (
	CompareAtMost  = "<="
	CompareAtLeast = ">="
)

// Summary is everything the evaluator needs to assemble a report.
type Summary struct {
	TotalRows     int
	EvaluatedRows int
	FailedRows    int
	SkippedRows   int
	Complete      bool
	Accuracy      float64
	Metrics       []types.MetricResult
	Groups        []types.GroupSummary
	Failures      []types.RowFailure
}

// Evaluate compares each thresholded metric and builds the final report.
// Metrics that were not computed are flagged but never fail the run.
func Evaluate(s Summary, th types.Thresholds) types.FairnessReport {
	checks := []types.ThresholdCheck{
		check(s.Metrics, types.MetricDemographicParityDifference, CompareAtMost, th.DemographicParity),
		check(s.Metrics, types.MetricEqualOpportunityDifference, CompareAtMost, th.EqualOpportunity),
	}
	if th.DisparateImpact != nil {
		checks = append(checks, check(s.Metrics, types.MetricDemographicParityRatio, CompareAtLeast, *th.DisparateImpact))
	}

	passed := true
	for _, c := range checks {
		if c.Verdict == types.VerdictFail {
			passed = false
		}
	}

	return types.FairnessReport{
		Passed:        passed,
		Complete:      s.Complete,
		TotalRows:     s.TotalRows,
		EvaluatedRows: s.EvaluatedRows,
		FailedRows:    s.FailedRows,
		SkippedRows:   s.SkippedRows,
		Accuracy:      s.Accuracy,
		Metrics:       append([]types.MetricResult(nil), s.Metrics...),
		Checks:        checks,
		Groups:        append([]types.GroupSummary(nil), s.Groups...),
		Failures:      append([]types.RowFailure(nil), s.Failures...),
	}
}

func check(metrics []types.MetricResult, name, comparison string, threshold float64) types.ThresholdCheck {
	c := types.ThresholdCheck{Metric: name, Comparison: comparison, Threshold: threshold, Verdict: types.VerdictNotComputable}
	for _, m := range metrics {
		if m.Name != name {
			continue
		}
		v, ok := m.Computed()
		if !ok {
			return c
		}
		c.Value = types.Float(v)
		c.Verdict = compare(v, comparison, threshold)
		return c
	}
	return c
}

// tolerance absorbs float rounding in computed rates, so 0.4-0.3 meets a
// 0.1 threshold.
const tolerance = 1e-9

func compare(v float64, comparison string, threshold float64) types.Verdict {
	if comparison == CompareAtLeast {
		if v >= threshold-tolerance {
			return types.VerdictPass
		}
		return types.VerdictFail
	}
	if math.Abs(v) <= threshold+tolerance {
		return types.VerdictPass
	}
	return types.VerdictFail
}

// ExitCode maps a finished report to the CLI exit status.
func ExitCode(r types.FairnessReport) int {
	if !r.Passed {
		return ExitFairnessFail
	}
	return ExitPass
}
