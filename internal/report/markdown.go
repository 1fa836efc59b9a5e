package report

import (
	"fmt"
	"strings"
)

func BuildMarkdown(d Document) string {
	r := d.Report
	var b strings.Builder
	b.WriteString("# Fairness Evaluation Report\n\n")
	b.WriteString(fmt.Sprintf("- Status: **%s**\n", status(r.Passed)))
	if !r.Complete {
		b.WriteString("- Run: **incomplete** (interrupted)\n")
	}
	b.WriteString(fmt.Sprintf("- Exit Code: `%d`\n", d.ExitCode))
	b.WriteString(fmt.Sprintf("- Run ID: `%s`\n", d.RunID))
	b.WriteString(fmt.Sprintf("- Endpoint: `%s`\n", d.Endpoint))
	b.WriteString(fmt.Sprintf("- Dataset: `%s`\n", d.Dataset))
	b.WriteString(fmt.Sprintf("- Rows: `%d` total, `%d` evaluated, `%d` failed, `%d` skipped\n", r.TotalRows, r.EvaluatedRows, r.FailedRows, r.SkippedRows))
	b.WriteString(fmt.Sprintf("- Accuracy: `%s`\n", percent(&r.Accuracy)))
	b.WriteString(fmt.Sprintf("- Report Digest: `%s`\n\n", d.ReportDigest))

	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Value | Detail |\n")
	b.WriteString("|---|---:|---|\n")
	for _, m := range r.Metrics {
		detail := m.Detail
		if detail == "" {
			detail = "-"
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", m.Name, metricValue(m), escape(detail)))
	}

	b.WriteString("\n## Thresholds\n\n")
	b.WriteString("| Metric | Rule | Value | Verdict |\n")
	b.WriteString("|---|---|---:|---|\n")
	for _, c := range r.Checks {
		b.WriteString(fmt.Sprintf("| %s | %s %.4f | %s | %s |\n", c.Metric, c.Comparison, c.Threshold, ratio(c.Value), c.Verdict))
	}

	b.WriteString("\n## Groups\n\n")
	b.WriteString("| Group | Rows | Failed | Positives | Selection Rate | TPR | Accuracy |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
	for _, g := range r.Groups {
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %s | %s | %s |\n", escape(g.Group), g.Total, g.Failed, g.ActualPositive, ratio(g.SelectionRate), ratio(g.TruePositiveRate), percent(g.Accuracy)))
	}

	if len(r.Failures) > 0 {
		b.WriteString("\n## Row Failures\n\n")
		if r.FailedRows > len(r.Failures) {
			b.WriteString(fmt.Sprintf("First %d of %d failures.\n\n", len(r.Failures), r.FailedRows))
		}
		for _, f := range r.Failures {
			b.WriteString(fmt.Sprintf("- row %d: %s\n", f.Row, f.Message))
		}
	}
	return b.String()
}

func WriteMarkdown(path string, d Document) error {
	return writeFile(path, []byte(BuildMarkdown(d)))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
