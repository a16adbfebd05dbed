// Package repository defines the record store the marketplace writes to.
// The store is the system of record; everything else (leaderboard cache,
// realtime events) is derived from it.
package repository

import (
	"context"
	"errors"

	"cybermeme-backend/internal/domain"
)

// ErrNotFound is returned by point lookups and updates that match no row.
var ErrNotFound = errors.New("record not found")

// MemeRepository covers the meme table.
type MemeRepository interface {
	// InsertMeme stores a new meme; the store assigns id, upvotes (0) and created_at.
	InsertMeme(ctx context.Context, meme domain.NewMeme) (domain.Meme, error)

	// ListMemes returns every meme ordered by created_at descending.
	ListMemes(ctx context.Context) ([]domain.Meme, error)

	// GetMeme returns a single meme or ErrNotFound.
	GetMeme(ctx context.Context, id int64) (domain.Meme, error)

	// SetUpvotes overwrites the upvote count and returns the updated row.
	SetUpvotes(ctx context.Context, id int64, upvotes int64) (domain.Meme, error)

	// TopMemes returns at most limit memes ordered by upvotes descending.
	TopMemes(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// BidRepository covers the bid table.
type BidRepository interface {
	InsertBid(ctx context.Context, bid domain.NewBid) (domain.Bid, error)
}

// Store is the full record store used by the market service.
type Store interface {
	MemeRepository
	BidRepository
}
