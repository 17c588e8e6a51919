package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crazyskateface/workbrew-backend/internal/models"
)

type entry struct {
	value      *models.Place
	insertedAt time.Time
}

// MemoryBackend is an in-process Backend. Staleness is checked lazily on
// read; there is no background sweep.
type MemoryBackend struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(b *MemoryBackend) { b.now = now }
}

// NewMemoryBackend creates an in-process backend. A non-positive ttl uses DefaultTTL.
func NewMemoryBackend(ttl time.Duration, opts ...MemoryOption) *MemoryBackend {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b := &MemoryBackend{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *MemoryBackend) Get(_ context.Context, key string) (*models.Place, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	if b.now().Sub(e.insertedAt) > b.ttl {
		delete(b.entries, key)
		return nil, false, nil
	}
	return e.value.Clone(), true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, place *models.Place) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = entry{value: place.Clone(), insertedAt: b.now()}
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, key)
	return nil
}

// Len counts stored entries, including expired ones not yet read.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
