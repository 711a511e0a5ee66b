package repository

import (
	"context"

	"github.com/foxseedlab/latticed/internal/repository"
)

// NopRepository is used when no database is configured. Saves are dropped
// and lookups find nothing.
type NopRepository struct{}

func (NopRepository) SaveDecode(_ context.Context, _ *repository.DecodeRecord) error {
	return nil
}

func (NopRepository) GetDecode(_ context.Context, _ string) (*repository.DecodeRecord, error) {
	return nil, nil
}
