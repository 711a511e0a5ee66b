package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const poolShutdownTimeout = 10 * time.Second

// Pool is a fixed set of sessions shared by concurrent requests. Acquire
// receives from a channel of available sessions and Release sends back, so
// each release wakes at most one waiting acquirer.
type Pool struct {
	factory  *Factory
	sessions []*Session
	free     chan *Session
	done     chan struct{}

	waiting   atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

type Stats struct {
	Size              int   `json:"size"`
	Available         int   `json:"available"`
	InFlight          int   `json:"in_flight"`
	Waiting           int64 `json:"waiting"`
	RecoveredFailures int64 `json:"recovered_failures"`
}

func NewPool(factory *Factory, size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	started := time.Now()
	p := &Pool{
		factory:  factory,
		sessions: make([]*Session, 0, size),
		free:     make(chan *Session, size),
		done:     make(chan struct{}),
	}
	for range size {
		s := factory.Produce()
		s.pool = p
		p.sessions = append(p.sessions, s)
		p.free <- s
	}
	slog.Info("session pool ready", "size", size, "elapsed_ms", time.Since(started).Milliseconds())
	return p, nil
}

func (p *Pool) Size() int {
	return len(p.sessions)
}

// Acquire blocks until a session is available or ctx ends.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	select {
	case s := <-p.free:
		return p.lease(s)
	default:
	}

	p.waiting.Add(1)
	defer p.waiting.Add(-1)
	select {
	case s := <-p.free:
		return p.lease(s)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrPoolClosed
	}
}

func (p *Pool) lease(s *Session) (*Session, error) {
	if p.closed.Load() {
		p.free <- s
		return nil, ErrPoolClosed
	}
	s.leased.Store(true)
	return s, nil
}

// Release hands s back to the pool. Releasing a session that is still
// mid-utterance, already released, or owned by another pool panics.
func (p *Pool) Release(s *Session) {
	if s == nil || s.pool != p {
		panic("session: release of a session from another pool")
	}
	if s.state != StateIdle {
		panic(fmt.Sprintf("session: release of session %d in state %s", s.id, s.state))
	}
	if !s.leased.CompareAndSwap(true, false) {
		panic(fmt.Sprintf("session: session %d released twice", s.id))
	}
	select {
	case p.free <- s:
	default:
		panic("session: pool over capacity")
	}
}

// With runs fn on an acquired session and releases it on every exit path. A
// session left mid-utterance is reset first.
func (p *Pool) With(ctx context.Context, fn func(*Session) error) error {
	s, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if s.state != StateIdle {
			s.Reset()
		}
		p.Release(s)
	}()
	return fn(s)
}

func (p *Pool) Stats() Stats {
	available := len(p.free)
	return Stats{
		Size:              len(p.sessions),
		Available:         available,
		InFlight:          len(p.sessions) - available,
		Waiting:           p.waiting.Load(),
		RecoveredFailures: p.factory.RecoveredFailures(),
	}
}

// Close waits for every session to come back, then destroys the sessions
// and the shared model. Acquire fails with ErrPoolClosed from then on.
func (p *Pool) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)
		for range p.sessions {
			select {
			case s := <-p.free:
				s.Reset()
			case <-ctx.Done():
				p.closeErr = fmt.Errorf("waiting for sessions to be released: %w", ctx.Err())
				return
			}
		}
		if err := p.factory.Close(); err != nil {
			p.closeErr = fmt.Errorf("close model: %w", err)
			return
		}
		slog.Info("session pool closed", "size", len(p.sessions))
	})
	return p.closeErr
}

func (p *Pool) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()
	return p.Close(ctx)
}
