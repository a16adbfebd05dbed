package sqlite

import (
	"context"
	"fmt"
	"testing"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertAndGetMeme(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.InsertMeme(ctx, domain.NewMeme{
		Title:    "Glitch Cat",
		ImageURL: domain.DefaultImageURL,
		Tags:     []string{"cyber", "cat"},
		OwnerID:  1,
		Caption:  "YOLO to the moon!",
		Vibe:     "Neon Chaos Mode",
	})
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(0), created.Upvotes)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, []string{"cyber", "cat"}, created.Tags)

	got, err := s.GetMeme(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestStore_NilTagsStoredAsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.InsertMeme(ctx, domain.NewMeme{Title: "no tags", ImageURL: "x", OwnerID: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{}, created.Tags)
}

func TestStore_GetMissingMeme(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetMeme(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.SetUpvotes(context.Background(), 999, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_SetUpvotesAllowsNegative(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m, err := s.InsertMeme(ctx, domain.NewMeme{Title: "down bad", ImageURL: "x", OwnerID: 1})
	require.NoError(t, err)

	updated, err := s.SetUpvotes(ctx, m.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), updated.Upvotes)
}

func TestStore_ListMemesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.InsertMeme(ctx, domain.NewMeme{Title: fmt.Sprintf("m%d", i), ImageURL: "x", OwnerID: 1})
		require.NoError(t, err)
	}

	memes, err := s.ListMemes(ctx)
	require.NoError(t, err)
	require.Len(t, memes, 3)
	assert.Equal(t, "m2", memes[0].Title)
	assert.Equal(t, "m0", memes[2].Title)
}

func TestStore_TopMemes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 12; i++ {
		m, err := s.InsertMeme(ctx, domain.NewMeme{Title: fmt.Sprintf("m%d", i), ImageURL: "x", OwnerID: 1})
		require.NoError(t, err)
		_, err = s.SetUpvotes(ctx, m.ID, int64(i%5))
		require.NoError(t, err)
	}

	top, err := s.TopMemes(ctx, domain.LeaderboardSize)
	require.NoError(t, err)
	require.Len(t, top, domain.LeaderboardSize)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Upvotes, top[i].Upvotes)
	}
	assert.Equal(t, int64(4), top[0].Upvotes)
}

func TestStore_InsertBid(t *testing.T) {
	s := newTestStore(t)

	bid, err := s.InsertBid(context.Background(), domain.NewBid{MemeID: 5, UserID: 1, Credits: 0})
	require.NoError(t, err)
	assert.NotZero(t, bid.ID)
	assert.Equal(t, int64(5), bid.MemeID)
	assert.Equal(t, int64(0), bid.Credits)
}
