package report

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

// BuildText renders the console summary.
func BuildText(d Document) string {
	r := d.Report
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("FAIRNESS TEST RESULTS\n")
	b.WriteString(rule + "\n\n")
	if !r.Complete {
		b.WriteString("!! run interrupted: results cover a partial dataset\n\n")
	}
	b.WriteString(fmt.Sprintf("Total predictions: %d (evaluated %d, failed %d, skipped %d)\n", r.TotalRows, r.EvaluatedRows, r.FailedRows, r.SkippedRows))
	b.WriteString(fmt.Sprintf("Accuracy: %s\n", percent(&r.Accuracy)))

	b.WriteString("\nFairness Metrics:\n")
	for _, m := range r.Metrics {
		line := fmt.Sprintf("  %s: %s", m.Name, metricValue(m))
		if m.Status != types.StatusComputed && m.Detail != "" {
			line += " (" + m.Detail + ")"
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\nThresholds:\n")
	for _, c := range r.Checks {
		mark := "✓"
		switch c.Verdict {
		case types.VerdictFail:
			mark = "✗"
		case types.VerdictNotComputable:
			mark = "?"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", mark, checkLine(c)))
	}

	b.WriteString("\nGroups:\n")
	for _, g := range r.Groups {
		b.WriteString(fmt.Sprintf("  %s: rows=%d failed=%d selection_rate=%s tpr=%s accuracy=%s\n", g.Group, g.Total, g.Failed, ratio(g.SelectionRate), ratio(g.TruePositiveRate), percent(g.Accuracy)))
	}

	if r.FailedRows > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped %d row(s) after prediction failures", r.FailedRows))
		if len(r.Failures) > 0 {
			b.WriteString(fmt.Sprintf("; first: row %d: %s", r.Failures[0].Row, r.Failures[0].Message))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\nOverall: %s\n", status(r.Passed)))
	return b.String()
}
