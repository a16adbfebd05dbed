// Package supabase is the production record store, backed by the Supabase
// PostgREST API (tables "memes" and "bids").
package supabase

import (
	"context"
	"fmt"
	"strconv"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/repository"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	memesTable = "memes"
	bidsTable  = "bids"
)

// Store implements repository.Store with supabase-go. The PostgREST client
// does not take a context; cancellation is left to its HTTP timeouts.
type Store struct {
	client *supabase.Client
}

// NewStore creates a Supabase client for the given project URL and key.
func NewStore(url, key string) (*Store, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Store{client: client}, nil
}

// InsertMeme implements repository.MemeRepository.
func (s *Store) InsertMeme(ctx context.Context, meme domain.NewMeme) (domain.Meme, error) {
	if meme.Tags == nil {
		meme.Tags = []string{}
	}
	var rows []domain.Meme
	_, err := s.client.From(memesTable).
		Insert(meme, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Meme{}, fmt.Errorf("insert meme: %w", err)
	}
	if len(rows) == 0 {
		return domain.Meme{}, fmt.Errorf("insert meme: no row returned")
	}
	return rows[0], nil
}

// ListMemes implements repository.MemeRepository.
func (s *Store) ListMemes(ctx context.Context) ([]domain.Meme, error) {
	rows := []domain.Meme{}
	_, err := s.client.From(memesTable).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list memes: %w", err)
	}
	return rows, nil
}

// GetMeme implements repository.MemeRepository.
func (s *Store) GetMeme(ctx context.Context, id int64) (domain.Meme, error) {
	var rows []domain.Meme
	_, err := s.client.From(memesTable).
		Select("*", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Meme{}, fmt.Errorf("get meme %d: %w", id, err)
	}
	if len(rows) == 0 {
		return domain.Meme{}, repository.ErrNotFound
	}
	return rows[0], nil
}

// SetUpvotes implements repository.MemeRepository.
func (s *Store) SetUpvotes(ctx context.Context, id int64, upvotes int64) (domain.Meme, error) {
	var rows []domain.Meme
	_, err := s.client.From(memesTable).
		Update(map[string]int64{"upvotes": upvotes}, "representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		ExecuteTo(&rows)
	if err != nil {
		return domain.Meme{}, fmt.Errorf("update upvotes of meme %d: %w", id, err)
	}
	if len(rows) == 0 {
		return domain.Meme{}, repository.ErrNotFound
	}
	return rows[0], nil
}

// TopMemes implements repository.MemeRepository.
func (s *Store) TopMemes(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows := []domain.LeaderboardEntry{}
	_, err := s.client.From(memesTable).
		Select("id, title, upvotes", "", false).
		Order("upvotes", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("top memes: %w", err)
	}
	return rows, nil
}

// InsertBid implements repository.BidRepository.
func (s *Store) InsertBid(ctx context.Context, bid domain.NewBid) (domain.Bid, error) {
	var rows []domain.Bid
	_, err := s.client.From(bidsTable).
		Insert(bid, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Bid{}, fmt.Errorf("insert bid: %w", err)
	}
	if len(rows) == 0 {
		return domain.Bid{}, fmt.Errorf("insert bid: no row returned")
	}
	return rows[0], nil
}

var _ repository.Store = (*Store)(nil)
