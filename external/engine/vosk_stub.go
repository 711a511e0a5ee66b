//go:build !vosk

package engine

import "github.com/foxseedlab/latticed/internal/engine"

func VoskAvailable() bool {
	return false
}

func NewVoskBackend() (engine.Backend, error) {
	return nil, ErrVoskUnavailable
}
