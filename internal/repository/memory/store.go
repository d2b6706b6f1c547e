// Package memory provides an in-memory EntityStore with the same contract
// as the postgres stores: user scoping, tombstones, and strictly monotonic
// write stamps. It backs the sync-core tests and needs no database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"moment/internal/domain"
	"moment/internal/domain/models"
)

// Clock issues strictly increasing timestamps. Stores stamping writes and
// the orchestrator capturing watermarks must share one instance, mirroring
// how the postgres stores and SystemClock share the database clock.
type Clock struct {
	mu   sync.Mutex
	last time.Time
}

// NewClock creates a Clock.
func NewClock() *Clock {
	return &Clock{}
}

// Now implements repositories.Clock.
func (c *Clock) Now(ctx context.Context) (time.Time, error) {
	return c.next(), nil
}

func (c *Clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// Store is a generic in-memory entity store. The clone function isolates
// callers from stored state so a caller mutating a returned record cannot
// corrupt the store.
type Store[T models.Syncable] struct {
	mu      sync.Mutex
	clock   *Clock
	clone   func(T) T
	records map[string]T
}

// NewStore creates a store stamping writes from the given clock.
func NewStore[T models.Syncable](clock *Clock, clone func(T) T) *Store[T] {
	return &Store[T]{
		clock:   clock,
		clone:   clone,
		records: make(map[string]T),
	}
}

// Get returns the live record, or domain.ErrNotFound. Tombstones and other
// users' records are indistinguishable from absence.
func (s *Store[T]) Get(ctx context.Context, userID, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	rec, ok := s.records[id]
	if !ok || rec.Base().UserID != userID || rec.Base().DeletedAt != nil {
		return zero, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return s.clone(rec), nil
}

// Upsert inserts or replaces the record, re-stamping updated_at and
// clearing any tombstone.
func (s *Store[T]) Upsert(ctx context.Context, userID string, entity T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	stored := s.clone(entity)
	base := stored.Base()
	base.UserID = userID

	now := s.clock.next()
	if existing, ok := s.records[base.ID]; ok {
		if existing.Base().UserID != userID {
			return zero, fmt.Errorf("record %s: %w", base.ID, domain.ErrNotFound)
		}
		base.CreatedAt = existing.Base().CreatedAt
	} else {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
	base.DeletedAt = nil

	s.records[base.ID] = stored
	return s.clone(stored), nil
}

// SoftDelete tombstones the record; absent, foreign, or already-deleted
// ids are a no-op.
func (s *Store[T]) SoftDelete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.Base().UserID != userID || rec.Base().DeletedAt != nil {
		return nil
	}
	now := s.clock.next()
	rec.Base().DeletedAt = &now
	rec.Base().UpdatedAt = now
	return nil
}

// ListChangedSince returns the user's records changed strictly after the
// watermark, tombstones included, ordered by updated_at.
func (s *Store[T]) ListChangedSince(ctx context.Context, userID string, since *time.Time) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []T
	for _, rec := range s.records {
		if rec.Base().UserID != userID {
			continue
		}
		if since != nil && !rec.Base().UpdatedAt.After(*since) {
			continue
		}
		out = append(out, s.clone(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Base().UpdatedAt.Before(out[j].Base().UpdatedAt)
	})
	return out, nil
}
