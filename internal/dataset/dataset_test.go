package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ogulcanaydogan/fairness-check/internal/config"
)

func defaultColumns() config.DatasetConfig {
	return config.DatasetConfig{
		FeaturesColumn:  "features",
		LabelsColumn:    "label",
		SensitiveColumn: "sensitive_attribute",
		FeaturesFormat:  config.FeaturesRaw,
	}
}

func TestReadRows(t *testing.T) {
	in := "features,label,sensitive_attribute\nfeat1,1,group_A\nfeat2,0,group_A\n\"a, b\",true,group_B\n"
	rows, err := Read(strings.NewReader(in), defaultColumns())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Features != "feat1" || !rows[0].TrueLabel || rows[0].SensitiveGroup != "group_A" || rows[0].Index != 0 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].TrueLabel {
		t.Errorf("row 1 label should be false")
	}
	if rows[2].Features != "a, b" || rows[2].Index != 2 {
		t.Errorf("row 2 = %+v", rows[2])
	}
	groups := Groups(rows)
	if strings.Join(groups, ",") != "group_A,group_B" {
		t.Errorf("groups = %v", groups)
	}
}

func TestReadCustomColumnsAndJSONFeatures(t *testing.T) {
	cfg := config.DatasetConfig{
		FeaturesColumn:  "payload",
		LabelsColumn:    "y",
		SensitiveColumn: "region",
		FeaturesFormat:  config.FeaturesJSON,
	}
	in := "region,y,payload\nnorth,1,\"{\"\"age\"\": 42}\"\nsouth,0,\"[1,2]\"\n"
	rows, err := Read(strings.NewReader(in), cfg)
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := rows[0].Features.(map[string]any)
	if !ok || obj["age"] != float64(42) {
		t.Errorf("row 0 features = %#v", rows[0].Features)
	}
	arr, ok := rows[1].Features.([]any)
	if !ok || len(arr) != 2 {
		t.Errorf("row 1 features = %#v", rows[1].Features)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"header only", "features,label,sensitive_attribute\n", "no data rows"},
		{"missing column", "features,label\nx,1\n", "sensitive_attribute"},
		{"bad label", "features,label,sensitive_attribute\nx,maybe,A\n", "not binary"},
		{"empty group", "features,label,sensitive_attribute\nx,1,\n", "empty sensitive_attribute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), defaultColumns())
			if !errors.Is(err, ErrDataset) {
				t.Fatalf("expected ErrDataset, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestReadInvalidJSONFeatures(t *testing.T) {
	cfg := defaultColumns()
	cfg.FeaturesFormat = config.FeaturesJSON
	_, err := Read(strings.NewReader("features,label,sensitive_attribute\nnot-json,1,A\n"), cfg)
	if !errors.Is(err, ErrDataset) {
		t.Fatalf("expected ErrDataset, got %v", err)
	}
}

func TestParseLabel(t *testing.T) {
	for _, s := range []string{"1", " true", "YES", "1.0", "t"} {
		v, err := ParseLabel(s)
		if err != nil || !v {
			t.Errorf("ParseLabel(%q) = %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"0", "False", "no", "0.0", "n"} {
		v, err := ParseLabel(s)
		if err != nil || v {
			t.Errorf("ParseLabel(%q) = %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"", "2", "0.5", "positive"} {
		if _, err := ParseLabel(s); err == nil {
			t.Errorf("ParseLabel(%q) should fail", s)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := defaultColumns()
	cfg.Path = filepath.Join(t.TempDir(), "nope.csv")
	_, err := Load(cfg)
	if !errors.Is(err, ErrDataset) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	cfg := defaultColumns()
	cfg.Path = filepath.Join(t.TempDir(), "rows.csv")
	if err := os.WriteFile(cfg.Path, []byte("features,label,sensitive_attribute\na,1,X\nb,0,Y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
}
