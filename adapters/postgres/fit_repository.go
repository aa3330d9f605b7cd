package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"rampfit/domain/core"
	"rampfit/internal/report"
	"rampfit/ports"
)

// FitRepositoryImpl implements FitRepository for PostgreSQL
type FitRepositoryImpl struct {
	db *sqlx.DB
}

// NewFitRepository creates a new PostgreSQL fit summary repository
func NewFitRepository(db *sqlx.DB) ports.FitRepository {
	return &FitRepositoryImpl{db: db}
}

// Connect opens and pings a PostgreSQL connection for the repository.
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS ramp_fit_summaries (
	id          TEXT PRIMARY KEY,
	exposure_id TEXT NOT NULL,
	pixels      INTEGER NOT NULL,
	summary     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ramp_fit_summaries_exposure
	ON ramp_fit_summaries (exposure_id, created_at DESC);
`

// EnsureSchema creates the summary table if it does not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure fit summary schema: %w", err)
	}
	return nil
}

// SaveSummary upserts one exposure fit summary.
func (r *FitRepositoryImpl) SaveSummary(ctx context.Context, record *ports.FitSummaryRecord) error {
	if record == nil {
		return core.NewValidationError("record", "record is nil")
	}
	if record.ID.String() == "" {
		record.ID = core.FitRunID(core.NewID())
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal fit summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ramp_fit_summaries (id, exposure_id, pixels, summary, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			exposure_id = EXCLUDED.exposure_id,
			pixels = EXCLUDED.pixels,
			summary = EXCLUDED.summary`,
		record.ID.String(), record.ExposureID.String(), record.Pixels, summaryJSON, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save fit summary: %w", err)
	}
	return nil
}

type fitSummaryRow struct {
	ID         string    `db:"id"`
	ExposureID string    `db:"exposure_id"`
	Pixels     int       `db:"pixels"`
	Summary    []byte    `db:"summary"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row fitSummaryRow) toRecord() (*ports.FitSummaryRecord, error) {
	var summary report.Summary
	if err := json.Unmarshal(row.Summary, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fit summary: %w", err)
	}
	return &ports.FitSummaryRecord{
		ID:         core.FitRunID(row.ID),
		ExposureID: core.ExposureID(row.ExposureID),
		Pixels:     row.Pixels,
		Summary:    &summary,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// GetSummary loads one fit summary by run ID.
func (r *FitRepositoryImpl) GetSummary(ctx context.Context, id core.FitRunID) (*ports.FitSummaryRecord, error) {
	var row fitSummaryRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, exposure_id, pixels, summary, created_at
		FROM ramp_fit_summaries WHERE id = $1`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("fit summary", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fit summary: %w", err)
	}
	return row.toRecord()
}

// ListRecent returns the most recent fit summaries, newest first.
func (r *FitRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*ports.FitSummaryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []fitSummaryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, exposure_id, pixels, summary, created_at
		FROM ramp_fit_summaries
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fit summaries: %w", err)
	}

	records := make([]*ports.FitSummaryRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
