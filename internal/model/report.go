package model

import (
	"time"

	"github.com/google/uuid"
)

// Report pairs a scan with its score for presentation layers.
type Report struct {
	ID    string           `json:"id"`
	Scan  *ScanResult      `json:"scan"`
	Score *ReputationScore `json:"score"`

	CreatedAt time.Time `json:"created_at"`
}

// NewReport assigns a fresh ID to a scan/score pair.
func NewReport(scan *ScanResult, score *ReputationScore) *Report {
	return &Report{
		ID:        uuid.New().String(),
		Scan:      scan,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}
}
