// Package session persists one conversation state per sender address.
//
// Store owns the choice of backend. It starts on the durable backend (Redis)
// and switches, once and for the life of the process, to the in-memory
// backend the first time the durable one fails. Callers never see storage
// errors; a degraded store only loses durability and cross-process sharing.
// Switching back requires a restart.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
)

const DefaultTTL = 6 * time.Hour

// Backend is a key/value store for serialized sessions.
type Backend interface {
	Get(ctx context.Context, address string) (domain.Session, bool, error)
	Set(ctx context.Context, address string, s domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, address string) error
	// DeleteIfVersion removes the session only if its stored version still
	// equals version. A mismatch or a missing session is (false, nil).
	DeleteIfVersion(ctx context.Context, address string, version int64) (bool, error)
}

type Store struct {
	primary  Backend
	fallback Backend
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	degraded atomic.Bool
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithFallback(b Backend) Option {
	return func(s *Store) {
		if b != nil {
			s.fallback = b
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a Store over primary. A nil primary starts degraded.
func NewStore(primary Backend, opts ...Option) *Store {
	s := &Store{
		primary: primary,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback == nil {
		s.fallback = NewMemoryBackend(WithMemoryClock(s.now))
	}
	if primary == nil {
		s.degraded.Store(true)
	}
	return s
}

// Degraded reports whether the store has switched to the in-memory backend.
func (s *Store) Degraded() bool {
	return s.degraded.Load()
}

// Get returns the stored session or a fresh one at the first step.
func (s *Store) Get(ctx context.Context, address string) domain.Session {
	var (
		sess  domain.Session
		found bool
	)
	s.run(ctx, "get", address, func(b Backend) error {
		var err error
		sess, found, err = b.Get(ctx, address)
		return err
	})
	if !found {
		return domain.Session{Step: domain.StepSource}
	}
	return sess.Sanitize()
}

// Set persists sess, bumping its version, and returns what was written.
func (s *Store) Set(ctx context.Context, address string, sess domain.Session) domain.Session {
	sess.Version++
	sess.UpdatedAt = s.now()
	s.run(ctx, "set", address, func(b Backend) error {
		return b.Set(ctx, address, sess, s.ttl)
	})
	return sess
}

// Clear removes the session. Clearing an absent session is a no-op.
func (s *Store) Clear(ctx context.Context, address string) {
	s.run(ctx, "clear", address, func(b Backend) error {
		return b.Delete(ctx, address)
	})
}

// ClearIfVersion removes the session only if nobody saved it after version
// was read. It reports whether the session was removed.
func (s *Store) ClearIfVersion(ctx context.Context, address string, version int64) bool {
	var removed bool
	s.run(ctx, "clear_if_version", address, func(b Backend) error {
		var err error
		removed, err = b.DeleteIfVersion(ctx, address, version)
		return err
	})
	return removed
}

func (s *Store) run(ctx context.Context, op, address string, fn func(Backend) error) {
	if !s.degraded.Load() {
		err := fn(s.primary)
		if err == nil {
			return
		}
		// The caller gave up; the backend is not at fault.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.DebugContext(ctx, "session op abandoned",
				slog.String("op", op),
				slog.String("address", address),
				slog.String("err", err.Error()),
			)
			return
		}
		if s.degraded.CompareAndSwap(false, true) {
			s.logger.WarnContext(ctx, "session store degraded to memory",
				slog.String("op", op),
				slog.String("address", address),
				slog.String("err", err.Error()),
			)
		}
	}
	if err := fn(s.fallback); err != nil {
		s.logger.ErrorContext(ctx, "session fallback failed",
			slog.String("op", op),
			slog.String("address", address),
			slog.String("err", err.Error()),
		)
	}
}
