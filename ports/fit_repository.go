package ports

import (
	"context"
	"time"

	"rampfit/domain/core"
	"rampfit/internal/report"
)

// FitSummaryRecord is one persisted exposure fit result.
type FitSummaryRecord struct {
	ID         core.FitRunID   `json:"id"`
	ExposureID core.ExposureID `json:"exposure_id"`
	Pixels     int             `json:"pixels"`
	Summary    *report.Summary `json:"summary"`
	CreatedAt  time.Time       `json:"created_at"`
}

// FitRepository defines the interface for fit summary persistence
type FitRepository interface {
	SaveSummary(ctx context.Context, record *FitSummaryRecord) error
	GetSummary(ctx context.Context, id core.FitRunID) (*FitSummaryRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*FitSummaryRecord, error)
}
