package session

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfOrder        = errors.New("session: chunk is not contiguous with audio already fed")
	ErrSampleRateChanged = errors.New("session: sample rate changed mid-utterance")
	ErrPoolClosed        = errors.New("session: pool is closed")
)

// LoadError reports a model resource that could not be loaded. It is fatal:
// no session is ever built from partially loaded resources.
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type UtteranceKind string

const (
	UtteranceTimeout    UtteranceKind = "timeout"
	UtteranceExtraction UtteranceKind = "extraction"
)

// UtteranceError describes a failed finalize. It never leaves the session;
// Finalize logs it and returns an empty result instead.
type UtteranceError struct {
	Kind      UtteranceKind
	SessionID int
	Err       error
}

func (e *UtteranceError) Error() string {
	return fmt.Sprintf("session %d: utterance %s: %v", e.SessionID, e.Kind, e.Err)
}

func (e *UtteranceError) Unwrap() error {
	return e.Err
}
