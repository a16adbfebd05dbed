package handlers

import (
	"context"
	"net/http"
	"strconv"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/service/market"
	"cybermeme-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MarketService is the subset of the market service the handlers drive.
type MarketService interface {
	CreateMeme(ctx context.Context, cmd market.CreateMemeCommand) (domain.Meme, error)
	PlaceBid(ctx context.Context, cmd market.PlaceBidCommand) (domain.Bid, error)
	CastVote(ctx context.Context, cmd market.CastVoteCommand) (domain.Meme, error)
	ListMemes(ctx context.Context) ([]domain.Meme, error)
	Leaderboard() []domain.LeaderboardEntry
}

// MarketHandler serves the meme, bid, vote and leaderboard routes.
type MarketHandler struct {
	service MarketService
	logger  *zap.Logger
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(service MarketService, logger *zap.Logger) *MarketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketHandler{service: service, logger: logger}
}

// Root handles GET /
func (h *MarketHandler) Root(w http.ResponseWriter, r *http.Request) {
	api.Text(w, http.StatusOK, Banner)
}

// ListMemes handles GET /memes
func (h *MarketHandler) ListMemes(w http.ResponseWriter, r *http.Request) {
	memes, err := h.service.ListMemes(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, memes)
}

// CreateMeme handles POST /memes
func (h *MarketHandler) CreateMeme(w http.ResponseWriter, r *http.Request) {
	var req api.CreateMemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	meme, err := h.service.CreateMeme(r.Context(), market.CreateMemeCommand{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Tags:     req.Tags,
		Owner:    req.Owner,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, meme)
}

// PlaceBid handles POST /bids
func (h *MarketHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req api.PlaceBidRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	bid, err := h.service.PlaceBid(r.Context(), market.PlaceBidCommand{
		MemeID:  req.MemeID,
		User:    req.User,
		Credits: req.Credits,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, bid)
}

// CastVote handles POST /memes/{id}/vote
func (h *MarketHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req api.VoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// No meme has id 0, so an unparsable id falls through to "Meme not found"
	// after the handle and vote type checks.
	memeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || memeID < 1 {
		memeID = 0
	}

	meme, err := h.service.CastVote(r.Context(), market.CastVoteCommand{
		MemeID:    memeID,
		Direction: req.Type,
		User:      req.User,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, meme)
}

// Leaderboard handles GET /leaderboard
func (h *MarketHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Leaderboard())
}

// Health handles GET /health
func (h *MarketHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}
