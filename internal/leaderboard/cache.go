// Package leaderboard holds the cached top memes served by GET /leaderboard.
package leaderboard

import (
	"sync"

	"cybermeme-backend/internal/domain"
)

// Cache is the single process-wide leaderboard value. It is only as fresh
// as the most recent vote: Replace is called by the vote path and nothing
// else refreshes it. Concurrent Replace calls are last-writer-wins.
type Cache struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

// NewCache returns an empty leaderboard.
func NewCache() *Cache {
	return &Cache{entries: []domain.LeaderboardEntry{}}
}

// Snapshot returns a copy of the current entries. Never nil.
func (c *Cache) Snapshot() []domain.LeaderboardEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.LeaderboardEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Replace swaps in a freshly computed leaderboard.
func (c *Cache) Replace(entries []domain.LeaderboardEntry) {
	next := make([]domain.LeaderboardEntry, len(entries))
	copy(next, entries)

	c.mu.Lock()
	c.entries = next
	c.mu.Unlock()
}
