package types

// DatasetRow is one evaluation unit loaded from the dataset. Features is
// forwarded to the classifier verbatim: a string for raw cells, or any
// JSON-decoded value when the dataset declares structured features.
type DatasetRow struct {
	Index          int    `json:"index"`
	Features       any    `json:"features"`
	TrueLabel      bool   `json:"true_label"`
	SensitiveGroup string `json:"sensitive_group"`
}

type PredictionRecord struct {
	TrueLabel      bool   `json:"true_label"`
	PredictedLabel bool   `json:"predicted_label"`
	SensitiveGroup string `json:"sensitive_group"`
}

// GroupTally holds the confusion counts of one sensitive group.
type GroupTally struct {
	Group             string `json:"group"`
	Total             int    `json:"total"`
	PredictedPositive int    `json:"predicted_positive"`
	ActualPositive    int    `json:"actual_positive"`
	TruePositive      int    `json:"true_positive"`
	FalsePositive     int    `json:"false_positive"`
	TrueNegative      int    `json:"true_negative"`
	FalseNegative     int    `json:"false_negative"`
}

func (t GroupTally) Correct() int {
	return t.TruePositive + t.TrueNegative
}

func (t GroupTally) SelectionRate() (float64, bool) {
	if t.Total == 0 {
		return 0, false
	}
	return float64(t.PredictedPositive) / float64(t.Total), true
}

// TruePositiveRate is undefined for a group without positive-labeled rows.
func (t GroupTally) TruePositiveRate() (float64, bool) {
	if t.ActualPositive == 0 {
		return 0, false
	}
	return float64(t.TruePositive) / float64(t.ActualPositive), true
}
