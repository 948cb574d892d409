// Package confirm implements the two-phase delete: a deletion is first
// requested, which yields a token, and only runs once that token is
// confirmed. Cancelling or letting the token expire discards the request.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long a pending deletion can be confirmed.
const DefaultTTL = 5 * time.Minute

// ErrPendingNotFound is returned for unknown, consumed or expired tokens.
var ErrPendingNotFound = errors.New("pending confirmation not found")

// Pending is a requested but not yet confirmed deletion.
type Pending struct {
	Token       string    `json:"token"`
	Well        string    `json:"well"`
	Process     string    `json:"process"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (p Pending) Expired(now time.Time) bool { return !now.Before(p.ExpiresAt) }

// Store keeps pending confirmations. Take must remove the entry it returns
// so a token can be used once.
type Store interface {
	Put(ctx context.Context, p Pending, ttl time.Duration) error
	Take(ctx context.Context, token string) (Pending, error)
	Close() error
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTokenGenerator replaces the uuid token source.
func WithTokenGenerator(gen func() string) Option {
	return func(m *Manager) { m.newToken = gen }
}

type Manager struct {
	store    Store
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

func NewManager(store Store, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// RequestDelete registers a pending deletion of (well, process).
func (m *Manager) RequestDelete(ctx context.Context, well, process, actor string) (Pending, error) {
	if well == "" || process == "" {
		return Pending{}, errors.New("well and process are required")
	}
	now := m.now().UTC()
	p := Pending{
		Token:       m.newToken(),
		Well:        well,
		Process:     process,
		RequestedBy: actor,
		RequestedAt: now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, p, m.ttl); err != nil {
		return Pending{}, fmt.Errorf("store pending deletion: %w", err)
	}
	return p, nil
}

// Confirm consumes the token and returns the deletion it stood for. The
// caller performs the actual delete.
func (m *Manager) Confirm(ctx context.Context, token string) (Pending, error) {
	p, err := m.store.Take(ctx, token)
	if err != nil {
		return Pending{}, err
	}
	if p.Expired(m.now()) {
		return Pending{}, ErrPendingNotFound
	}
	return p, nil
}

// Cancel discards the pending deletion.
func (m *Manager) Cancel(ctx context.Context, token string) error {
	_, err := m.store.Take(ctx, token)
	return err
}

func (m *Manager) Close() error { return m.store.Close() }
