package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/storage"
)

// BlacklistStore implements storage.BlacklistStore using PostgreSQL.
type BlacklistStore struct {
	pool *Pool
	now  func() time.Time
}

// NewBlacklistStore creates a new BlacklistStore.
func NewBlacklistStore(pool *Pool) *BlacklistStore {
	return &BlacklistStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.BlacklistStore = (*BlacklistStore)(nil)

// Insert adds a new entry. Returns ErrDuplicateKey if address exists.
func (s *BlacklistStore) Insert(ctx context.Context, e *domain.BlacklistEntry) error {
	if e == nil || e.Address == "" || !e.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	createdAt := e.CreatedAt
	if createdAt == 0 {
		createdAt = s.now().UnixMilli()
	}

	query := `
		INSERT INTO blacklist_entries (address, kind, reason, created_at)
		VALUES ($1, $2, $3, $4)
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query, e.Address, string(e.Kind), e.Reason, createdAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			observe("blacklist_insert", start, nil)
			return storage.ErrDuplicateKey
		}
		observe("blacklist_insert", start, err)
		if isCheckViolation(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	observe("blacklist_insert", start, nil)
	return nil
}

// Delete removes an entry. Returns ErrNotFound if address does not exist.
func (s *BlacklistStore) Delete(ctx context.Context, address string) error {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM blacklist_entries WHERE address = $1`, address)
	observe("blacklist_delete", start, err)
	if err != nil {
		return fmt.Errorf("delete blacklist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByAddress retrieves an entry. Returns ErrNotFound if not exists.
func (s *BlacklistStore) GetByAddress(ctx context.Context, address string) (*domain.BlacklistEntry, error) {
	query := `
		SELECT address, kind, reason, created_at
		FROM blacklist_entries
		WHERE address = $1
	`

	start := time.Now()
	e, err := scanBlacklistEntry(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			observe("blacklist_get", start, nil)
			return nil, storage.ErrNotFound
		}
		observe("blacklist_get", start, err)
		return nil, fmt.Errorf("get blacklist entry: %w", err)
	}
	observe("blacklist_get", start, nil)
	return e, nil
}

// List retrieves all entries ordered by (created_at ASC, address ASC).
func (s *BlacklistStore) List(ctx context.Context) ([]*domain.BlacklistEntry, error) {
	query := `
		SELECT address, kind, reason, created_at
		FROM blacklist_entries
		ORDER BY created_at ASC, address ASC
	`
	return s.query(ctx, "blacklist_list", query)
}

// ListByKind retrieves entries of one kind.
func (s *BlacklistStore) ListByKind(ctx context.Context, kind domain.BlacklistKind) ([]*domain.BlacklistEntry, error) {
	query := `
		SELECT address, kind, reason, created_at
		FROM blacklist_entries
		WHERE kind = $1
		ORDER BY created_at ASC, address ASC
	`
	return s.query(ctx, "blacklist_list_kind", query, string(kind))
}

func (s *BlacklistStore) query(ctx context.Context, operation, query string, args ...any) ([]*domain.BlacklistEntry, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		observe(operation, start, err)
		return nil, fmt.Errorf("query blacklist entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.BlacklistEntry
	for rows.Next() {
		e, err := scanBlacklistEntry(rows)
		if err != nil {
			observe(operation, start, err)
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		observe(operation, start, err)
		return nil, fmt.Errorf("iterate blacklist entries: %w", err)
	}

	observe(operation, start, nil)
	return entries, nil
}

// scanBlacklistEntry scans a single row into BlacklistEntry.
func scanBlacklistEntry(row pgx.Row) (*domain.BlacklistEntry, error) {
	var e domain.BlacklistEntry
	var kind string

	if err := row.Scan(&e.Address, &kind, &e.Reason, &e.CreatedAt); err != nil {
		return nil, err
	}

	e.Kind = domain.BlacklistKind(kind)
	return &e, nil
}
