// Package market implements the meme marketplace mutations and reads.
//
// Every mutation follows the same discipline: check the caller's handle,
// validate input, write to the store, and only once the write has succeeded
// notify realtime subscribers. Notification is fire-and-forget; it never
// rolls back or retries the write.
package market

import (
	"context"
	"errors"
	"fmt"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/infrastructure/observability"
	"cybermeme-backend/internal/leaderboard"
	"cybermeme-backend/internal/repository"
	"cybermeme-backend/internal/service/caption"
	"cybermeme-backend/internal/users"
	appErrors "cybermeme-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Client-facing messages.
const (
	MsgUserNotFound    = "User not found"
	MsgInvalidBid      = "Invalid bid"
	MsgInvalidVoteType = "Invalid vote type"
	MsgMemeNotFound    = "Meme not found"
	MsgServerGlitch    = "Server glitch"
)

// CaptionGenerator produces a caption and vibe for a new meme. It never fails.
type CaptionGenerator interface {
	Generate(ctx context.Context, title string, tags []string, imageURL string) caption.Caption
}

// Notifier pushes market changes to realtime subscribers.
type Notifier interface {
	MemeCreated(meme domain.Meme)
	BidPlaced(event domain.BidPlacedEvent)
	VoteUpdated(event domain.VoteUpdatedEvent)
	LeaderboardUpdated(entries []domain.LeaderboardEntry)
}

// CreateMemeCommand carries the input of CreateMeme.
type CreateMemeCommand struct {
	Title    string
	ImageURL string
	Tags     []string
	Owner    string
}

// PlaceBidCommand carries the input of PlaceBid. A nil Credits means the
// amount was not supplied.
type PlaceBidCommand struct {
	MemeID  int64
	User    string
	Credits *int64 `validate:"required,gte=0"`
}

// CastVoteCommand carries the input of CastVote.
type CastVoteCommand struct {
	MemeID    int64
	Direction string `validate:"required,oneof=up down"`
	User      string
}

// Service orchestrates the marketplace use cases.
type Service struct {
	users    users.Directory
	store    repository.Store
	captions CaptionGenerator
	board    *leaderboard.Cache
	notifier Notifier
	metrics  *observability.Collector // optional
	validate *validator.Validate
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewService creates a market service. metrics may be nil.
func NewService(
	directory users.Directory,
	store repository.Store,
	captions CaptionGenerator,
	board *leaderboard.Cache,
	notifier Notifier,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    directory,
		store:    store,
		captions: captions,
		board:    board,
		notifier: notifier,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
		tracer:   otel.Tracer("cybermeme-backend.service.market"),
	}
}

// CreateMeme stores a new meme with a generated caption and announces it.
func (s *Service) CreateMeme(ctx context.Context, cmd CreateMemeCommand) (domain.Meme, error) {
	ctx, span := s.tracer.Start(ctx, "MarketService.CreateMeme",
		trace.WithAttributes(
			attribute.String("meme.owner", cmd.Owner),
			attribute.Int("tags.count", len(cmd.Tags)),
		),
	)
	defer span.End()

	owner, ok := s.users.Lookup(cmd.Owner)
	if !ok {
		span.SetStatus(codes.Error, "unknown owner")
		return domain.Meme{}, appErrors.NewUnauthorized(MsgUserNotFound)
	}

	imageURL := cmd.ImageURL
	if imageURL == "" {
		imageURL = domain.DefaultImageURL
	}
	tags := cmd.Tags
	if tags == nil {
		tags = []string{}
	}

	generated := s.captions.Generate(ctx, cmd.Title, tags, imageURL)

	meme, err := s.store.InsertMeme(ctx, domain.NewMeme{
		Title:    cmd.Title,
		ImageURL: imageURL,
		Tags:     tags,
		OwnerID:  owner.ID,
		Caption:  generated.Caption,
		Vibe:     generated.Vibe,
	})
	if err != nil {
		return domain.Meme{}, s.upstreamFailure(span, "insert meme", err)
	}

	span.SetAttributes(attribute.Int64("meme.id", meme.ID))
	if s.metrics != nil {
		s.metrics.MemesCreated.Inc()
	}
	s.logger.Info("Meme created",
		zap.Int64("memeID", meme.ID),
		zap.Int64("ownerID", owner.ID),
		zap.String("vibe", meme.Vibe),
	)

	s.notifier.MemeCreated(meme)
	return meme, nil
}

// PlaceBid records a credit offer on a meme. The bidder's balance is neither
// checked nor debited, and the meme id is not verified.
func (s *Service) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (domain.Bid, error) {
	ctx, span := s.tracer.Start(ctx, "MarketService.PlaceBid",
		trace.WithAttributes(
			attribute.Int64("meme.id", cmd.MemeID),
			attribute.String("bid.user", cmd.User),
		),
	)
	defer span.End()

	bidder, ok := s.users.Lookup(cmd.User)
	if !ok {
		span.SetStatus(codes.Error, "unknown bidder")
		return domain.Bid{}, appErrors.NewUnauthorized(MsgUserNotFound)
	}

	if err := s.validate.Struct(cmd); err != nil {
		span.SetStatus(codes.Error, "invalid bid")
		return domain.Bid{}, appErrors.NewValidation(MsgInvalidBid)
	}

	bid, err := s.store.InsertBid(ctx, domain.NewBid{
		MemeID:  cmd.MemeID,
		UserID:  bidder.ID,
		Credits: *cmd.Credits,
	})
	if err != nil {
		return domain.Bid{}, s.upstreamFailure(span, "insert bid", err)
	}

	if s.metrics != nil {
		s.metrics.BidsPlaced.Inc()
	}
	s.logger.Info("Bid placed",
		zap.Int64("bidID", bid.ID),
		zap.Int64("memeID", bid.MemeID),
		zap.Int64("credits", bid.Credits),
	)

	s.notifier.BidPlaced(domain.BidPlacedEvent{
		MemeID:  bid.MemeID,
		Credits: bid.Credits,
		User:    cmd.User,
	})
	return bid, nil
}

// CastVote moves a meme's upvote count by one and recomputes the leaderboard.
//
// The read of the current count and the write of the new one are separate
// store calls, so concurrent votes on the same meme can lose updates. The same
// user may vote any number of times.
func (s *Service) CastVote(ctx context.Context, cmd CastVoteCommand) (domain.Meme, error) {
	ctx, span := s.tracer.Start(ctx, "MarketService.CastVote",
		trace.WithAttributes(
			attribute.Int64("meme.id", cmd.MemeID),
			attribute.String("vote.direction", cmd.Direction),
		),
	)
	defer span.End()

	if _, ok := s.users.Lookup(cmd.User); !ok {
		span.SetStatus(codes.Error, "unknown voter")
		return domain.Meme{}, appErrors.NewUnauthorized(MsgUserNotFound)
	}

	if err := s.validate.Struct(cmd); err != nil {
		span.SetStatus(codes.Error, "invalid vote type")
		return domain.Meme{}, appErrors.NewValidation(MsgInvalidVoteType)
	}
	direction := domain.VoteDirection(cmd.Direction)

	current, err := s.store.GetMeme(ctx, cmd.MemeID)
	if err != nil {
		// A failed lookup is reported the same way as a missing meme.
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to fetch meme for vote",
				zap.Int64("memeID", cmd.MemeID),
				zap.Error(err),
			)
		}
		span.SetStatus(codes.Error, "meme not found")
		return domain.Meme{}, appErrors.NewNotFound(MsgMemeNotFound)
	}

	updated, err := s.store.SetUpvotes(ctx, cmd.MemeID, current.Upvotes+direction.Delta())
	if err != nil {
		return domain.Meme{}, s.upstreamFailure(span, "update upvotes", err)
	}

	if s.metrics != nil {
		s.metrics.VotesCast.WithLabelValues(string(direction)).Inc()
	}
	s.logger.Info("Vote cast",
		zap.Int64("memeID", updated.ID),
		zap.String("direction", string(direction)),
		zap.Int64("upvotes", updated.Upvotes),
	)

	s.notifier.VoteUpdated(domain.VoteUpdatedEvent{
		MemeID:  cmd.MemeID,
		Upvotes: updated.Upvotes,
	})

	s.refreshLeaderboard(ctx)

	return updated, nil
}

// ListMemes returns every meme, newest first.
func (s *Service) ListMemes(ctx context.Context) ([]domain.Meme, error) {
	ctx, span := s.tracer.Start(ctx, "MarketService.ListMemes")
	defer span.End()

	memes, err := s.store.ListMemes(ctx)
	if err != nil {
		return nil, s.upstreamFailure(span, "list memes", err)
	}
	if memes == nil {
		memes = []domain.Meme{}
	}
	return memes, nil
}

// Leaderboard returns the cached top memes as of the most recent vote.
func (s *Service) Leaderboard() []domain.LeaderboardEntry {
	return s.board.Snapshot()
}

// refreshLeaderboard replaces the cache with a fresh top query. The vote has
// already been persisted, so a failed query keeps the previous cache and
// skips the broadcast instead of failing the request.
func (s *Service) refreshLeaderboard(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "MarketService.refreshLeaderboard")
	defer span.End()

	top, err := s.store.TopMemes(ctx, domain.LeaderboardSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "leaderboard query failed")
		s.logger.Error("Failed to recompute leaderboard", zap.Error(err))
		return
	}

	s.board.Replace(top)
	if s.metrics != nil {
		s.metrics.LeaderboardRecomputes.Inc()
	}
	span.SetAttributes(attribute.Int("leaderboard.size", len(top)))

	s.notifier.LeaderboardUpdated(s.board.Snapshot())
}

func (s *Service) upstreamFailure(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, operation+" failed")
	s.logger.Error("Store operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return appErrors.NewInternal(MsgServerGlitch, fmt.Errorf("%s: %w", operation, err))
}
