package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/foxseedlab/latticed/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) SaveDecode(ctx context.Context, record *repository.DecodeRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`INSERT INTO decode_requests (id, format, sample_rate, channels, samples, truncated, chunks, n_best, chunk_seconds, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		record.ID, record.Format, record.SampleRate, record.Channels, record.Samples,
		record.Truncated, record.Chunks, record.NBest, record.ChunkSeconds, record.DurationMs)
	if err := row.Scan(&record.CreatedAt); err != nil {
		return fmt.Errorf("insert decode request: %w", err)
	}

	if len(record.Alternatives) > 0 {
		rows := make([][]any, 0, len(record.Alternatives))
		for _, a := range record.Alternatives {
			rows = append(rows, []any{record.ID, a.Rank, a.Transcript, a.Confidence, a.AMScore, a.LMScore})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"decode_alternatives"},
			[]string{"decode_id", "rank", "transcript", "confidence", "am_score", "lm_score"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("copy decode alternatives: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetDecode(ctx context.Context, id string) (*repository.DecodeRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, format, sample_rate, channels, samples, truncated, chunks, n_best, chunk_seconds, duration_ms, created_at
		 FROM decode_requests WHERE id = $1`,
		id)
	var rec repository.DecodeRecord
	err := row.Scan(&rec.ID, &rec.Format, &rec.SampleRate, &rec.Channels, &rec.Samples,
		&rec.Truncated, &rec.Chunks, &rec.NBest, &rec.ChunkSeconds, &rec.DurationMs, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT rank, transcript, confidence, am_score, lm_score
		 FROM decode_alternatives WHERE decode_id = $1 ORDER BY rank ASC`,
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a repository.AlternativeRecord
		if err := rows.Scan(&a.Rank, &a.Transcript, &a.Confidence, &a.AMScore, &a.LMScore); err != nil {
			return nil, err
		}
		rec.Alternatives = append(rec.Alternatives, a)
	}
	return &rec, rows.Err()
}

func (r *PostgresRepository) Shutdown() {
	r.pool.Close()
}
