package storage

import (
	"context"

	"dex-pair-monitor/internal/domain"
)

// BlacklistStore provides access to blacklist_entries storage.
type BlacklistStore interface {
	// Insert adds a new entry. Returns ErrDuplicateKey if address exists.
	Insert(ctx context.Context, e *domain.BlacklistEntry) error

	// Delete removes an entry. Returns ErrNotFound if address does not exist.
	Delete(ctx context.Context, address string) error

	// GetByAddress retrieves an entry. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.BlacklistEntry, error)

	// List retrieves all entries ordered by (created_at ASC, address ASC).
	List(ctx context.Context) ([]*domain.BlacklistEntry, error)

	// ListByKind retrieves entries of one kind, same ordering as List.
	ListByKind(ctx context.Context, kind domain.BlacklistKind) ([]*domain.BlacklistEntry, error)
}
