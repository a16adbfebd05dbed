// Package sqlite is a local record store for development and tests. It
// mirrors the Supabase tables so the service runs without remote credentials.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/repository"

	_ "modernc.org/sqlite"
)

// Fixed-width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements repository.Store on top of database/sql.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS memes(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			image_url TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			owner_id INTEGER NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			vibe TEXT NOT NULL DEFAULT '',
			upvotes INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bids(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			meme_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			credits INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memes_upvotes ON memes(upvotes DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertMeme implements repository.MemeRepository.
func (s *Store) InsertMeme(ctx context.Context, meme domain.NewMeme) (domain.Meme, error) {
	tags := meme.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return domain.Meme{}, fmt.Errorf("encode tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memes(title, image_url, tags, owner_id, caption, vibe, upvotes, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, 0, ?)`,
		meme.Title, meme.ImageURL, string(tagsJSON), meme.OwnerID, meme.Caption, meme.Vibe,
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return domain.Meme{}, fmt.Errorf("insert meme: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Meme{}, fmt.Errorf("insert meme: %w", err)
	}
	return s.GetMeme(ctx, id)
}

// ListMemes implements repository.MemeRepository.
func (s *Store) ListMemes(ctx context.Context) ([]domain.Meme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, image_url, tags, owner_id, caption, vibe, upvotes, created_at
		 FROM memes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list memes: %w", err)
	}
	defer rows.Close()

	memes := []domain.Meme{}
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, err
		}
		memes = append(memes, m)
	}
	return memes, rows.Err()
}

// GetMeme implements repository.MemeRepository.
func (s *Store) GetMeme(ctx context.Context, id int64) (domain.Meme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, image_url, tags, owner_id, caption, vibe, upvotes, created_at
		 FROM memes WHERE id = ?`, id)
	m, err := scanMeme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Meme{}, repository.ErrNotFound
	}
	return m, err
}

// SetUpvotes implements repository.MemeRepository.
func (s *Store) SetUpvotes(ctx context.Context, id int64, upvotes int64) (domain.Meme, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE memes SET upvotes = ? WHERE id = ?`, upvotes, id)
	if err != nil {
		return domain.Meme{}, fmt.Errorf("update upvotes: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Meme{}, repository.ErrNotFound
	}
	return s.GetMeme(ctx, id)
}

// TopMemes implements repository.MemeRepository.
func (s *Store) TopMemes(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, upvotes FROM memes ORDER BY upvotes DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top memes: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Upvotes); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertBid implements repository.BidRepository.
func (s *Store) InsertBid(ctx context.Context, bid domain.NewBid) (domain.Bid, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bids(meme_id, user_id, credits) VALUES(?, ?, ?)`,
		bid.MemeID, bid.UserID, bid.Credits)
	if err != nil {
		return domain.Bid{}, fmt.Errorf("insert bid: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Bid{}, fmt.Errorf("insert bid: %w", err)
	}
	return domain.Bid{ID: id, MemeID: bid.MemeID, UserID: bid.UserID, Credits: bid.Credits}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeme(row scanner) (domain.Meme, error) {
	var (
		m         domain.Meme
		tags      string
		createdAt string
	)
	if err := row.Scan(&m.ID, &m.Title, &m.ImageURL, &tags, &m.OwnerID, &m.Caption, &m.Vibe, &m.Upvotes, &createdAt); err != nil {
		return domain.Meme{}, err
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return domain.Meme{}, fmt.Errorf("decode tags of meme %d: %w", m.ID, err)
	}
	ts, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return domain.Meme{}, fmt.Errorf("parse created_at of meme %d: %w", m.ID, err)
	}
	m.CreatedAt = ts
	return m, nil
}

var _ repository.Store = (*Store)(nil)
