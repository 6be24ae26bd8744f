package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/storage"
)

// BlacklistStore is an in-memory implementation of storage.BlacklistStore.
type BlacklistStore struct {
	mu        sync.RWMutex
	byAddress map[string]*domain.BlacklistEntry
	now       func() time.Time
}

// NewBlacklistStore creates a new in-memory blacklist store.
func NewBlacklistStore() *BlacklistStore {
	return &BlacklistStore{
		byAddress: make(map[string]*domain.BlacklistEntry),
		now:       time.Now,
	}
}

// Insert adds a new entry. Returns ErrDuplicateKey if address exists.
// CreatedAt is stamped when zero.
func (s *BlacklistStore) Insert(_ context.Context, e *domain.BlacklistEntry) error {
	if e == nil || e.Address == "" || !e.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[e.Address]; exists {
		return storage.ErrDuplicateKey
	}

	entryCopy := *e
	if entryCopy.CreatedAt == 0 {
		entryCopy.CreatedAt = s.now().UnixMilli()
	}
	s.byAddress[e.Address] = &entryCopy
	return nil
}

// Delete removes an entry. Returns ErrNotFound if address does not exist.
func (s *BlacklistStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[address]; !exists {
		return storage.ErrNotFound
	}
	delete(s.byAddress, address)
	return nil
}

// GetByAddress retrieves an entry. Returns ErrNotFound if not exists.
func (s *BlacklistStore) GetByAddress(_ context.Context, address string) (*domain.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	entryCopy := *e
	return &entryCopy, nil
}

// List retrieves all entries ordered by (created_at ASC, address ASC).
func (s *BlacklistStore) List(_ context.Context) ([]*domain.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(*domain.BlacklistEntry) bool { return true }), nil
}

// ListByKind retrieves entries of one kind.
func (s *BlacklistStore) ListByKind(_ context.Context, kind domain.BlacklistKind) ([]*domain.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(e *domain.BlacklistEntry) bool { return e.Kind == kind }), nil
}

// collect copies matching entries in deterministic order. Caller holds the lock.
func (s *BlacklistStore) collect(match func(*domain.BlacklistEntry) bool) []*domain.BlacklistEntry {
	result := make([]*domain.BlacklistEntry, 0, len(s.byAddress))
	for _, e := range s.byAddress {
		if match(e) {
			entryCopy := *e
			result = append(result, &entryCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Address < result[j].Address
	})
	return result
}

var _ storage.BlacklistStore = (*BlacklistStore)(nil)
