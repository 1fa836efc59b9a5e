package types

import "testing"

func TestGroupTallyRates(t *testing.T) {
	g := GroupTally{Group: "A", Total: 4, PredictedPositive: 3, ActualPositive: 2, TruePositive: 2, FalsePositive: 1, TrueNegative: 1}

	if got := g.Correct(); got != 3 {
		t.Errorf("Correct() = %d, want 3", got)
	}
	if v, ok := g.SelectionRate(); !ok || v != 0.75 {
		t.Errorf("SelectionRate() = %v, %v", v, ok)
	}
	if v, ok := g.TruePositiveRate(); !ok || v != 1 {
		t.Errorf("TruePositiveRate() = %v, %v", v, ok)
	}
}

func TestGroupTallyUndefinedRates(t *testing.T) {
	if _, ok := (GroupTally{}).SelectionRate(); ok {
		t.Error("empty group should have no selection rate")
	}
	if _, ok := (GroupTally{Total: 3, PredictedPositive: 1, TrueNegative: 2}).TruePositiveRate(); ok {
		t.Error("group without positives should have no true positive rate")
	}
}

func TestMetricLookup(t *testing.T) {
	r := FairnessReport{Metrics: []MetricResult{
		{Name: MetricDemographicParityDifference, Value: Float(0.2), Status: StatusComputed},
		{Name: MetricEqualOpportunityDifference, Status: StatusNotComputable},
	}}

	m, ok := r.Metric(MetricDemographicParityDifference)
	if !ok {
		t.Fatal("expected metric")
	}
	if v, computed := m.Computed(); !computed || v != 0.2 {
		t.Errorf("Computed() = %v, %v", v, computed)
	}

	m, ok = r.Metric(MetricEqualOpportunityDifference)
	if !ok {
		t.Fatal("expected metric")
	}
	if _, computed := m.Computed(); computed {
		t.Error("not computable metric reported a value")
	}

	if _, ok := r.Metric(MetricDemographicParityRatio); ok {
		t.Error("absent metric reported as present")
	}
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	if th.DemographicParity != DefaultThreshold || th.EqualOpportunity != DefaultThreshold {
		t.Errorf("unexpected defaults %+v", th)
	}
	if th.DisparateImpact != nil {
		t.Error("disparate impact should be unset by default")
	}
}
