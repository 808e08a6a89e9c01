// Package postgres persists analysis reports.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"magfit/app"
	"magfit/domain/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_reports (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL
)`

// ReportRepository stores analysis reports in PostgreSQL.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new PostgreSQL report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnsureSchema creates the backing table when missing.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create analysis_reports: %w", err)
	}
	return nil
}

// Save persists a report; existing rows with the same id are replaced.
func (r *ReportRepository) Save(ctx context.Context, report *app.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.ID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_reports (id, created_at, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET created_at = $2, payload = $3
	`, report.ID.String(), report.CreatedAt.Time(), payload)
	if err != nil {
		return fmt.Errorf("save report %s: %w", report.ID, err)
	}
	return nil
}

// Get returns the report with the given id, or ErrNoRows-wrapped error.
func (r *ReportRepository) Get(ctx context.Context, id core.ReportID) (*app.Report, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload,
		`SELECT payload FROM analysis_reports WHERE id = $1`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	var report app.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

// List returns the most recent reports, newest first.
func (r *ReportRepository) List(ctx context.Context, limit int) ([]*app.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var payloads [][]byte
	err := r.db.SelectContext(ctx, &payloads,
		`SELECT payload FROM analysis_reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]*app.Report, 0, len(payloads))
	for _, p := range payloads {
		var report app.Report
		if err := json.Unmarshal(p, &report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, nil
}
