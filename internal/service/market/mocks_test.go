package market

import (
	"context"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/service/caption"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of repository.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertMeme(ctx context.Context, meme domain.NewMeme) (domain.Meme, error) {
	args := m.Called(ctx, meme)
	return args.Get(0).(domain.Meme), args.Error(1)
}

func (m *MockStore) ListMemes(ctx context.Context) ([]domain.Meme, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Meme), args.Error(1)
}

func (m *MockStore) GetMeme(ctx context.Context, id int64) (domain.Meme, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Meme), args.Error(1)
}

func (m *MockStore) SetUpvotes(ctx context.Context, id int64, upvotes int64) (domain.Meme, error) {
	args := m.Called(ctx, id, upvotes)
	return args.Get(0).(domain.Meme), args.Error(1)
}

func (m *MockStore) TopMemes(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

func (m *MockStore) InsertBid(ctx context.Context, bid domain.NewBid) (domain.Bid, error) {
	args := m.Called(ctx, bid)
	return args.Get(0).(domain.Bid), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) MemeCreated(meme domain.Meme) {
	m.Called(meme)
}

func (m *MockNotifier) BidPlaced(event domain.BidPlacedEvent) {
	m.Called(event)
}

func (m *MockNotifier) VoteUpdated(event domain.VoteUpdatedEvent) {
	m.Called(event)
}

func (m *MockNotifier) LeaderboardUpdated(entries []domain.LeaderboardEntry) {
	m.Called(entries)
}

// stubCaptions returns a fixed caption.
type stubCaptions struct {
	result caption.Caption
	calls  int
}

func (s *stubCaptions) Generate(ctx context.Context, title string, tags []string, imageURL string) caption.Caption {
	s.calls++
	return s.result
}
