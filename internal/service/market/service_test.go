package market

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/infrastructure/observability"
	"cybermeme-backend/internal/leaderboard"
	"cybermeme-backend/internal/repository"
	"cybermeme-backend/internal/service/caption"
	"cybermeme-backend/internal/users"
	appErrors "cybermeme-backend/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func credits(n int64) *int64 { return &n }

type fixture struct {
	store    *MockStore
	notifier *MockNotifier
	captions *stubCaptions
	board    *leaderboard.Cache
	metrics  *observability.Collector
	service  *Service
}

func newFixture() *fixture {
	f := &fixture{
		store:    new(MockStore),
		notifier: new(MockNotifier),
		captions: &stubCaptions{result: caption.Caption{Caption: "Hack the planet", Vibe: "Retro Synth"}},
		board:    leaderboard.NewCache(),
		metrics:  observability.NewCollector("test"),
	}
	f.service = NewService(
		users.NewStaticDirectory(users.DefaultUsers()),
		f.store,
		f.captions,
		f.board,
		f.notifier,
		f.metrics,
		zap.NewNop(),
	)
	return f
}

func TestService_CreateMeme(t *testing.T) {
	t.Run("Should store and announce a meme owned by a known user", func(t *testing.T) {
		// Arrange
		f := newFixture()
		stored := domain.Meme{ID: 1, Title: "Doge", ImageURL: "https://img/doge.png", Tags: []string{"crypto"}, OwnerID: 2, Caption: "Hack the planet", Vibe: "Retro Synth"}
		f.store.On("InsertMeme", mock.Anything, domain.NewMeme{
			Title:    "Doge",
			ImageURL: "https://img/doge.png",
			Tags:     []string{"crypto"},
			OwnerID:  2,
			Caption:  "Hack the planet",
			Vibe:     "Retro Synth",
		}).Return(stored, nil)
		f.notifier.On("MemeCreated", stored).Return()

		// Act
		meme, err := f.service.CreateMeme(context.Background(), CreateMemeCommand{
			Title: "Doge", ImageURL: "https://img/doge.png", Tags: []string{"crypto"}, Owner: "cybershadow",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, stored, meme)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MemesCreated))
		f.store.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Should default an empty image to the placeholder", func(t *testing.T) {
		f := newFixture()
		f.store.On("InsertMeme", mock.Anything, mock.MatchedBy(func(m domain.NewMeme) bool {
			return m.ImageURL == domain.DefaultImageURL
		})).Return(domain.Meme{ID: 1, ImageURL: domain.DefaultImageURL}, nil)
		f.notifier.On("MemeCreated", mock.MatchedBy(func(m domain.Meme) bool {
			return m.ImageURL == domain.DefaultImageURL
		})).Return()

		meme, err := f.service.CreateMeme(context.Background(), CreateMemeCommand{Title: "x", Owner: "neonhacker"})

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultImageURL, meme.ImageURL)
		f.store.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Should reject an unknown owner without writing or broadcasting", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.CreateMeme(context.Background(), CreateMemeCommand{Title: "x", Owner: "ghost"})

		assert.True(t, appErrors.IsUnauthorized(err))
		assert.Equal(t, MsgUserNotFound, appErrors.MessageOf(err))
		assert.Zero(t, f.captions.calls)
		f.store.AssertNotCalled(t, "InsertMeme", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "MemeCreated", mock.Anything)
	})

	t.Run("Should report a store failure without broadcasting", func(t *testing.T) {
		f := newFixture()
		f.store.On("InsertMeme", mock.Anything, mock.Anything).Return(domain.Meme{}, errors.New("connection reset"))

		_, err := f.service.CreateMeme(context.Background(), CreateMemeCommand{Title: "x", Owner: "neonhacker"})

		assert.True(t, appErrors.IsInternal(err))
		assert.Equal(t, MsgServerGlitch, appErrors.MessageOf(err))
		assert.ErrorContains(t, err, "connection reset")
		f.notifier.AssertNotCalled(t, "MemeCreated", mock.Anything)
	})
}

func TestService_PlaceBid(t *testing.T) {
	t.Run("Should store and announce a bid", func(t *testing.T) {
		f := newFixture()
		f.store.On("InsertBid", mock.Anything, domain.NewBid{MemeID: 5, UserID: 1, Credits: 100}).
			Return(domain.Bid{ID: 9, MemeID: 5, UserID: 1, Credits: 100}, nil)
		f.notifier.On("BidPlaced", domain.BidPlacedEvent{MemeID: 5, Credits: 100, User: "neonhacker"}).Return()

		bid, err := f.service.PlaceBid(context.Background(), PlaceBidCommand{MemeID: 5, User: "neonhacker", Credits: credits(100)})

		require.NoError(t, err)
		assert.Equal(t, int64(9), bid.ID)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BidsPlaced))
		f.store.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Should accept a zero bid", func(t *testing.T) {
		f := newFixture()
		f.store.On("InsertBid", mock.Anything, domain.NewBid{MemeID: 5, UserID: 2, Credits: 0}).
			Return(domain.Bid{ID: 1, MemeID: 5, UserID: 2}, nil)
		f.notifier.On("BidPlaced", mock.Anything).Return()

		_, err := f.service.PlaceBid(context.Background(), PlaceBidCommand{MemeID: 5, User: "cybershadow", Credits: credits(0)})

		require.NoError(t, err)
		f.store.AssertExpectations(t)
	})

	t.Run("Should accept a bid above the bidder's balance", func(t *testing.T) {
		f := newFixture()
		f.store.On("InsertBid", mock.Anything, domain.NewBid{MemeID: 5, UserID: 1, Credits: 5000}).
			Return(domain.Bid{ID: 1, MemeID: 5, UserID: 1, Credits: 5000}, nil)
		f.notifier.On("BidPlaced", mock.Anything).Return()

		_, err := f.service.PlaceBid(context.Background(), PlaceBidCommand{MemeID: 5, User: "neonhacker", Credits: credits(5000)})

		require.NoError(t, err)
	})

	tests := []struct {
		name    string
		cmd     PlaceBidCommand
		checkFn func(error) bool
		message string
	}{
		{"negative credits", PlaceBidCommand{MemeID: 5, User: "neonhacker", Credits: credits(-10)}, appErrors.IsValidation, MsgInvalidBid},
		{"missing credits", PlaceBidCommand{MemeID: 5, User: "neonhacker"}, appErrors.IsValidation, MsgInvalidBid},
		{"unknown user", PlaceBidCommand{MemeID: 5, User: "ghost", Credits: credits(10)}, appErrors.IsUnauthorized, MsgUserNotFound},
		{"unknown user with invalid credits", PlaceBidCommand{MemeID: 5, User: "ghost", Credits: credits(-1)}, appErrors.IsUnauthorized, MsgUserNotFound},
	}
	for _, tt := range tests {
		t.Run("Should reject "+tt.name+" without writing", func(t *testing.T) {
			f := newFixture()

			_, err := f.service.PlaceBid(context.Background(), tt.cmd)

			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
			assert.Equal(t, tt.message, appErrors.MessageOf(err))
			f.store.AssertNotCalled(t, "InsertBid", mock.Anything, mock.Anything)
			f.notifier.AssertNotCalled(t, "BidPlaced", mock.Anything)
		})
	}

	t.Run("Should report a store failure without broadcasting", func(t *testing.T) {
		f := newFixture()
		f.store.On("InsertBid", mock.Anything, mock.Anything).Return(domain.Bid{}, errors.New("boom"))

		_, err := f.service.PlaceBid(context.Background(), PlaceBidCommand{MemeID: 5, User: "neonhacker", Credits: credits(1)})

		assert.True(t, appErrors.IsInternal(err))
		f.notifier.AssertNotCalled(t, "BidPlaced", mock.Anything)
	})
}

func TestService_CastVote(t *testing.T) {
	t.Run("Should move three upvotes to four and recompute the leaderboard", func(t *testing.T) {
		// Arrange
		f := newFixture()
		top := []domain.LeaderboardEntry{{ID: 5, Title: "Glitch Cat", Upvotes: 4}}
		f.store.On("GetMeme", mock.Anything, int64(5)).Return(domain.Meme{ID: 5, Upvotes: 3}, nil)
		f.store.On("SetUpvotes", mock.Anything, int64(5), int64(4)).Return(domain.Meme{ID: 5, Title: "Glitch Cat", Upvotes: 4}, nil)
		f.store.On("TopMemes", mock.Anything, domain.LeaderboardSize).Return(top, nil)
		f.notifier.On("VoteUpdated", domain.VoteUpdatedEvent{MemeID: 5, Upvotes: 4}).Return()
		f.notifier.On("LeaderboardUpdated", top).Return()

		// Act
		meme, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 5, Direction: "up", User: "cybershadow"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(4), meme.Upvotes)
		assert.Equal(t, top, f.service.Leaderboard())
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VotesCast.WithLabelValues("up")))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LeaderboardRecomputes))
		f.store.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Should let upvotes go negative", func(t *testing.T) {
		f := newFixture()
		f.store.On("GetMeme", mock.Anything, int64(1)).Return(domain.Meme{ID: 1, Upvotes: 0}, nil)
		f.store.On("SetUpvotes", mock.Anything, int64(1), int64(-1)).Return(domain.Meme{ID: 1, Upvotes: -1}, nil)
		f.store.On("TopMemes", mock.Anything, domain.LeaderboardSize).Return([]domain.LeaderboardEntry{}, nil)
		f.notifier.On("VoteUpdated", mock.Anything).Return()
		f.notifier.On("LeaderboardUpdated", mock.Anything).Return()

		meme, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 1, Direction: "down", User: "neonhacker"})

		require.NoError(t, err)
		assert.Equal(t, int64(-1), meme.Upvotes)
	})

	t.Run("Should reject an unknown voter before the direction", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 1, Direction: "sideways", User: "ghost"})

		assert.True(t, appErrors.IsUnauthorized(err))
		f.store.AssertNotCalled(t, "GetMeme", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "VoteUpdated", mock.Anything)
	})

	for _, direction := range []string{"", "sideways", "UP"} {
		t.Run("Should reject direction "+direction, func(t *testing.T) {
			f := newFixture()

			_, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 1, Direction: direction, User: "neonhacker"})

			assert.True(t, appErrors.IsValidation(err))
			assert.Equal(t, MsgInvalidVoteType, appErrors.MessageOf(err))
			f.store.AssertNotCalled(t, "GetMeme", mock.Anything, mock.Anything)
		})
	}

	t.Run("Should return not found and leave the leaderboard alone", func(t *testing.T) {
		f := newFixture()
		before := []domain.LeaderboardEntry{{ID: 1, Title: "a", Upvotes: 2}}
		f.board.Replace(before)
		f.store.On("GetMeme", mock.Anything, int64(404)).Return(domain.Meme{}, repository.ErrNotFound)

		_, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 404, Direction: "up", User: "neonhacker"})

		assert.True(t, appErrors.IsNotFound(err))
		assert.Equal(t, MsgMemeNotFound, appErrors.MessageOf(err))
		assert.Equal(t, before, f.board.Snapshot())
		f.store.AssertNotCalled(t, "SetUpvotes", mock.Anything, mock.Anything, mock.Anything)
		f.store.AssertNotCalled(t, "TopMemes", mock.Anything, mock.Anything)
	})

	t.Run("Should treat a failed fetch as not found", func(t *testing.T) {
		f := newFixture()
		f.store.On("GetMeme", mock.Anything, int64(1)).Return(domain.Meme{}, errors.New("timeout"))

		_, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 1, Direction: "up", User: "neonhacker"})

		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("Should report a failed update without broadcasting", func(t *testing.T) {
		f := newFixture()
		f.store.On("GetMeme", mock.Anything, int64(1)).Return(domain.Meme{ID: 1, Upvotes: 1}, nil)
		f.store.On("SetUpvotes", mock.Anything, int64(1), int64(2)).Return(domain.Meme{}, errors.New("write failed"))

		_, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 1, Direction: "up", User: "neonhacker"})

		assert.True(t, appErrors.IsInternal(err))
		f.notifier.AssertNotCalled(t, "VoteUpdated", mock.Anything)
		f.notifier.AssertNotCalled(t, "LeaderboardUpdated", mock.Anything)
		f.store.AssertNotCalled(t, "TopMemes", mock.Anything, mock.Anything)
	})

	t.Run("Should keep the vote when the leaderboard query fails", func(t *testing.T) {
		f := newFixture()
		before := []domain.LeaderboardEntry{{ID: 1, Title: "a", Upvotes: 1}}
		f.board.Replace(before)
		f.store.On("GetMeme", mock.Anything, int64(1)).Return(domain.Meme{ID: 1, Upvotes: 1}, nil)
		f.store.On("SetUpvotes", mock.Anything, int64(1), int64(2)).Return(domain.Meme{ID: 1, Upvotes: 2}, nil)
		f.store.On("TopMemes", mock.Anything, domain.LeaderboardSize).Return(nil, errors.New("timeout"))
		f.notifier.On("VoteUpdated", domain.VoteUpdatedEvent{MemeID: 1, Upvotes: 2}).Return()

		meme, err := f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 1, Direction: "up", User: "neonhacker"})

		require.NoError(t, err)
		assert.Equal(t, int64(2), meme.Upvotes)
		assert.Equal(t, before, f.board.Snapshot())
		f.notifier.AssertNotCalled(t, "LeaderboardUpdated", mock.Anything)
	})
}

func TestService_ConcurrentVotesLoseUpdate(t *testing.T) {
	// Arrange: both votes read the count before either writes.
	f := newFixture()
	var reads sync.WaitGroup
	reads.Add(2)
	f.store.On("GetMeme", mock.Anything, int64(7)).
		Run(func(mock.Arguments) {
			reads.Done()
			reads.Wait()
		}).
		Return(domain.Meme{ID: 7, Upvotes: 3}, nil).
		Twice()
	f.store.On("SetUpvotes", mock.Anything, int64(7), int64(4)).
		Return(domain.Meme{ID: 7, Title: "Glitch Cat", Upvotes: 4}, nil).
		Twice()
	f.store.On("TopMemes", mock.Anything, domain.LeaderboardSize).
		Return([]domain.LeaderboardEntry{{ID: 7, Title: "Glitch Cat", Upvotes: 4}}, nil)
	f.notifier.On("VoteUpdated", domain.VoteUpdatedEvent{MemeID: 7, Upvotes: 4}).Return()
	f.notifier.On("LeaderboardUpdated", mock.Anything).Return()

	// Act
	results := make([]domain.Meme, 2)
	errs := make([]error, 2)
	var votes sync.WaitGroup
	for i := range results {
		votes.Add(1)
		go func(i int) {
			defer votes.Done()
			results[i], errs[i] = f.service.CastVote(context.Background(), CastVoteCommand{MemeID: 7, Direction: "up", User: "neonhacker"})
		}(i)
	}
	votes.Wait()

	// Assert: two up votes, one increment persisted.
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(4), results[i].Upvotes)
	}
	f.store.AssertNumberOfCalls(t, "SetUpvotes", 2)
	f.store.AssertNotCalled(t, "SetUpvotes", mock.Anything, int64(7), int64(5))
	assert.Equal(t, int64(4), f.service.Leaderboard()[0].Upvotes)
	f.store.AssertExpectations(t)
}

func TestService_ListMemes(t *testing.T) {
	t.Run("Should return an empty list rather than nil", func(t *testing.T) {
		f := newFixture()
		f.store.On("ListMemes", mock.Anything).Return(nil, nil)

		memes, err := f.service.ListMemes(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, memes)
		assert.Empty(t, memes)
	})

	t.Run("Should surface store failures as internal", func(t *testing.T) {
		f := newFixture()
		f.store.On("ListMemes", mock.Anything).Return(nil, errors.New("down"))

		_, err := f.service.ListMemes(context.Background())

		assert.True(t, appErrors.IsInternal(err))
	})
}

func TestService_LeaderboardEmptyBeforeFirstVote(t *testing.T) {
	f := newFixture()

	entries := f.service.Leaderboard()

	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
