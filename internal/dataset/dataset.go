package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/ogulcanaydogan/fairness-check/internal/config"
	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

var ErrDataset = errors.New("invalid dataset")

func Load(cfg config.DatasetConfig) ([]types.DatasetRow, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDataset, cfg.Path, err)
	}
	defer f.Close()
	rows, err := Read(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Path, err)
	}
	return rows, nil
}

// Read parses delimited text with a header row. Row indexes are zero-based
// positions among data rows.
func Read(r io.Reader, cfg config.DatasetConfig) ([]types.DatasetRow, error) {
	records, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %w", ErrDataset, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrDataset)
	}
	for _, col := range []string{cfg.FeaturesColumn, cfg.LabelsColumn, cfg.SensitiveColumn} {
		if _, ok := records[0][col]; !ok {
			return nil, fmt.Errorf("%w: column %q not found in dataset", ErrDataset, col)
		}
	}

	out := make([]types.DatasetRow, 0, len(records))
	for i, rec := range records {
		label, err := ParseLabel(rec[cfg.LabelsColumn])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrDataset, i, err)
		}
		group := strings.TrimSpace(rec[cfg.SensitiveColumn])
		if group == "" {
			return nil, fmt.Errorf("%w: row %d: empty %s value", ErrDataset, i, cfg.SensitiveColumn)
		}
		features, err := decodeFeatures(rec[cfg.FeaturesColumn], cfg.FeaturesFormat)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrDataset, i, err)
		}
		out = append(out, types.DatasetRow{
			Index:          i,
			Features:       features,
			TrueLabel:      label,
			SensitiveGroup: group,
		})
	}
	return out, nil
}

// ParseLabel accepts the binary spellings commonly found in labeled data.
func ParseLabel(raw string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "1", "true", "t", "yes", "y":
		return true, nil
	case "0", "false", "f", "no", "n":
		return false, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		switch f {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
	return false, fmt.Errorf("label %q is not binary", raw)
}

func decodeFeatures(cell, format string) (any, error) {
	if format != config.FeaturesJSON {
		return cell, nil
	}
	var v any
	if err := json.Unmarshal([]byte(cell), &v); err != nil {
		return nil, fmt.Errorf("features are not valid JSON: %w", err)
	}
	return v, nil
}

// Groups returns the distinct sensitive groups in first-seen order.
func Groups(rows []types.DatasetRow) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range rows {
		if _, ok := seen[r.SensitiveGroup]; ok {
			continue
		}
		seen[r.SensitiveGroup] = struct{}{}
		out = append(out, r.SensitiveGroup)
	}
	return out
}
