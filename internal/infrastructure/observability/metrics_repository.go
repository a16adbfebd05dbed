package observability

import (
	"context"
	"errors"
	"time"

	"cybermeme-backend/internal/domain"
	"cybermeme-backend/internal/repository"
)

// metricsStore is a decorator that records the count and latency of every
// record store call.
type metricsStore struct {
	inner   repository.Store
	metrics *Collector
}

// InstrumentStore wraps a store with metrics collection.
func InstrumentStore(inner repository.Store, metrics *Collector) repository.Store {
	if metrics == nil {
		return inner
	}
	return &metricsStore{inner: inner, metrics: metrics}
}

func (s *metricsStore) observe(operation string, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(operation, status).Inc()
	s.metrics.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (s *metricsStore) InsertMeme(ctx context.Context, meme domain.NewMeme) (domain.Meme, error) {
	start := time.Now()
	m, err := s.inner.InsertMeme(ctx, meme)
	s.observe("insert_meme", start, err)
	return m, err
}

func (s *metricsStore) ListMemes(ctx context.Context) ([]domain.Meme, error) {
	start := time.Now()
	m, err := s.inner.ListMemes(ctx)
	s.observe("list_memes", start, err)
	return m, err
}

func (s *metricsStore) GetMeme(ctx context.Context, id int64) (domain.Meme, error) {
	start := time.Now()
	m, err := s.inner.GetMeme(ctx, id)
	s.observe("get_meme", start, err)
	return m, err
}

func (s *metricsStore) SetUpvotes(ctx context.Context, id int64, upvotes int64) (domain.Meme, error) {
	start := time.Now()
	m, err := s.inner.SetUpvotes(ctx, id, upvotes)
	s.observe("set_upvotes", start, err)
	return m, err
}

func (s *metricsStore) TopMemes(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	start := time.Now()
	e, err := s.inner.TopMemes(ctx, limit)
	s.observe("top_memes", start, err)
	return e, err
}

func (s *metricsStore) InsertBid(ctx context.Context, bid domain.NewBid) (domain.Bid, error) {
	start := time.Now()
	b, err := s.inner.InsertBid(ctx, bid)
	s.observe("insert_bid", start, err)
	return b, err
}
