package blacklist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/storage"
)

// Guard keeps the token blacklist in memory for per-cycle lookups and
// writes changes through to a store.
// Thread-safe for concurrent use.
type Guard struct {
	store  storage.BlacklistStore
	logger *log.Logger

	mu     sync.RWMutex
	tokens map[string]struct{}
}

// NewGuard creates a Guard backed by store. Call Sync to load existing entries.
func NewGuard(store storage.BlacklistStore, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.New(os.Stdout, "[blacklist] ", log.LstdFlags|log.Lshortfile)
	}
	return &Guard{
		store:  store,
		logger: logger,
		tokens: make(map[string]struct{}),
	}
}

// Sync reloads the token set from the store.
func (g *Guard) Sync(ctx context.Context) error {
	entries, err := g.store.ListByKind(ctx, domain.BlacklistToken)
	if err != nil {
		return fmt.Errorf("list token blacklist: %w", err)
	}

	tokens := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		tokens[Key(e.Address)] = struct{}{}
	}

	g.mu.Lock()
	g.tokens = tokens
	g.mu.Unlock()

	g.logger.Printf("synced %d token entries", len(tokens))
	return nil
}

// Add validates and stores an entry. Returns the stored entry with its
// canonical address.
func (g *Guard) Add(ctx context.Context, entry domain.BlacklistEntry) (*domain.BlacklistEntry, error) {
	address, err := Normalize(entry.Kind, entry.Address)
	if err != nil {
		return nil, err
	}
	entry.Address = address

	if err := g.store.Insert(ctx, &entry); err != nil {
		return nil, fmt.Errorf("insert blacklist entry: %w", err)
	}

	if entry.Kind == domain.BlacklistToken {
		g.mu.Lock()
		g.tokens[address] = struct{}{}
		g.mu.Unlock()
	}

	stored, err := g.store.GetByAddress(ctx, address)
	if err != nil {
		return &entry, nil
	}
	return stored, nil
}

// Remove deletes an entry. Returns storage.ErrNotFound if absent.
func (g *Guard) Remove(ctx context.Context, address string) error {
	key := Key(address)
	if err := g.store.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete blacklist entry: %w", err)
	}

	g.mu.Lock()
	delete(g.tokens, key)
	g.mu.Unlock()
	return nil
}

// List returns every stored entry.
func (g *Guard) List(ctx context.Context) ([]*domain.BlacklistEntry, error) {
	entries, err := g.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	return entries, nil
}

// ContainsToken reports whether a token address is blacklisted.
func (g *Guard) ContainsToken(address string) bool {
	if address == "" {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.tokens[Key(address)]
	return ok
}

// Len returns the number of blacklisted tokens.
func (g *Guard) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tokens)
}
