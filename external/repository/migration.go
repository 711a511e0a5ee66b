package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS decode_requests (
		id UUID PRIMARY KEY,
		format TEXT NOT NULL,
		sample_rate INTEGER NOT NULL,
		channels INTEGER NOT NULL,
		samples BIGINT NOT NULL,
		truncated BOOLEAN NOT NULL DEFAULT FALSE,
		chunks INTEGER NOT NULL,
		n_best INTEGER NOT NULL,
		chunk_seconds DOUBLE PRECISION NOT NULL,
		duration_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_decode_requests_created ON decode_requests (created_at)`,
	`CREATE TABLE IF NOT EXISTS decode_alternatives (
		decode_id UUID NOT NULL REFERENCES decode_requests(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		transcript TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		am_score DOUBLE PRECISION NOT NULL,
		lm_score DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (decode_id, rank)
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
