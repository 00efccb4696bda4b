package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS report_jobs (
		id UUID PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		params JSONB NOT NULL DEFAULT '{}'::jsonb,
		status VARCHAR(16) NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		result_url TEXT,
		institution_id VARCHAR(64) NOT NULL,
		created_by VARCHAR(64) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMP WITH TIME ZONE,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_report_jobs_status_created ON report_jobs (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_report_jobs_owner ON report_jobs (institution_id, created_by)`,
}

// EnsureSchema creates the report job tables when they are missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
