package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/fairness-check/internal/hash"
	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

// Document wraps an engine report with run metadata. The engine report
// itself stays free of identifiers and timestamps so two runs over the same
// predictions produce the same ReportDigest.
type Document struct {
	RunID        string               `json:"run_id"`
	GeneratedAt  string               `json:"generated_at"`
	Endpoint     string               `json:"endpoint"`
	Dataset      string               `json:"dataset"`
	ExitCode     int                  `json:"exit_code"`
	ReportDigest string               `json:"report_digest"`
	Report       types.FairnessReport `json:"report"`
}

func NewDocument(endpoint, dataset string, exitCode int, r types.FairnessReport, now time.Time) (Document, error) {
	digest, err := Digest(r)
	if err != nil {
		return Document{}, err
	}
	return Document{
		RunID:        uuid.NewString(),
		GeneratedAt:  now.UTC().Format(time.RFC3339),
		Endpoint:     endpoint,
		Dataset:      dataset,
		ExitCode:     exitCode,
		ReportDigest: digest,
		Report:       r,
	}, nil
}

// Digest hashes the canonical JSON of r.
func Digest(r types.FairnessReport) (string, error) {
	return hash.Digest(r)
}
