package types

const (
	MetricDemographicParityDifference = "demographic_parity_difference"
	MetricDemographicParityRatio      = "demographic_parity_ratio"
	MetricEqualOpportunityDifference  = "equal_opportunity_difference"
)

type MetricStatus string

const (
	StatusComputed      MetricStatus = "computed"
	StatusNotComputable MetricStatus = "not_computable"
	// StatusUndefined is reserved for report consumers; the metrics engine
	// never emits it because a zero maximum selection rate implies parity.
	StatusUndefined     MetricStatus = "undefined"
)

type Verdict string

const (
	VerdictPass          Verdict = "pass"
	VerdictFail          Verdict = "fail"
	VerdictNotComputable Verdict = "not_computable"
)

const DefaultThreshold = 0.1

// MetricResult carries a nil Value whenever Status is not computed, so a
// missing measurement is never confused with a measured zero.
type MetricResult struct {
	Name   string       `json:"name"`
	Value  *float64     `json:"value"`
	Status MetricStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
}

func (m MetricResult) Computed() (float64, bool) {
	if m.Status != StatusComputed || m.Value == nil {
		return 0, false
	}
	return *m.Value, true
}

type Thresholds struct {
	DemographicParity float64 `json:"demographic_parity"`
	EqualOpportunity  float64 `json:"equal_opportunity"`
	// DisparateImpact is a lower bound on demographic_parity_ratio; nil
	// leaves the ratio unevaluated.
	DisparateImpact *float64 `json:"disparate_impact,omitempty"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{DemographicParity: DefaultThreshold, EqualOpportunity: DefaultThreshold}
}

type ThresholdCheck struct {
	Metric     string   `json:"metric"`
	Comparison string   `json:"comparison"`
	Threshold  float64  `json:"threshold"`
	Value      *float64 `json:"value"`
	Verdict    Verdict  `json:"verdict"`
}

// GroupSummary describes one sensitive group of the input. Rates are nil
// when the group has no evaluated rows (or, for the true positive rate, no
// positive-labeled rows).
type GroupSummary struct {
	Group            string   `json:"group"`
	Total            int      `json:"total"`
	Failed           int      `json:"failed"`
	ActualPositive   int      `json:"actual_positive"`
	SelectionRate    *float64 `json:"selection_rate"`
	TruePositiveRate *float64 `json:"true_positive_rate"`
	Accuracy         *float64 `json:"accuracy"`
}

type RowFailure struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type FairnessReport struct {
	Passed        bool             `json:"passed"`
	Complete      bool             `json:"complete"`
	TotalRows     int              `json:"total_rows"`
	EvaluatedRows int              `json:"evaluated_rows"`
	FailedRows    int              `json:"failed_rows"`
	SkippedRows   int              `json:"skipped_rows"`
	Accuracy      float64          `json:"accuracy"`
	Metrics       []MetricResult   `json:"metrics"`
	Checks        []ThresholdCheck `json:"checks"`
	Groups        []GroupSummary   `json:"groups"`
	Failures      []RowFailure     `json:"failures,omitempty"`
}

func (r FairnessReport) Metric(name string) (MetricResult, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return MetricResult{}, false
}

func Float(v float64) *float64 {
	return &v
}
