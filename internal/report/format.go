package report

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

func status(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func ratio(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

func percent(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func metricValue(m types.MetricResult) string {
	if v, ok := m.Computed(); ok {
		return fmt.Sprintf("%.4f", v)
	}
	return strings.ReplaceAll(string(m.Status), "_", " ")
}

func checkLine(c types.ThresholdCheck) string {
	switch c.Verdict {
	case types.VerdictNotComputable:
		return fmt.Sprintf("%s %s %.4f: not computable", c.Metric, c.Comparison, c.Threshold)
	default:
		return fmt.Sprintf("%s %s %.4f: %s (%s)", c.Metric, c.Comparison, c.Threshold, c.Verdict, ratio(c.Value))
	}
}
