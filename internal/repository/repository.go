package repository

import "context"

type DecodeRepository interface {
	SaveDecode(ctx context.Context, record *DecodeRecord) error
	// GetDecode returns nil and no error when id is unknown.
	GetDecode(ctx context.Context, id string) (*DecodeRecord, error)
}

type Repository interface {
	DecodeRepository
}
