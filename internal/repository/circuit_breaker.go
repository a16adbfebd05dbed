package repository

import (
	"context"
	"errors"
	"time"

	"cybermeme-backend/internal/domain"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig holds configuration for the store circuit breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Trip when at least MinRequests were seen and the failure ratio reaches FailureThreshold
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// breakerStore fails fast while the upstream store keeps failing. It does
// not retry: a rejected call surfaces as an error like any other store failure.
type breakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

// WithCircuitBreaker wraps a store so that a failing upstream trips the breaker.
// ErrNotFound counts as a success.
func WithCircuitBreaker(inner Store, config CircuitBreakerConfig, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})

	return &breakerStore{inner: inner, cb: cb}
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if v, ok := res.(T); ok {
			return v, err
		}
		return zero, err
	}
	return res.(T), nil
}

func (s *breakerStore) InsertMeme(ctx context.Context, meme domain.NewMeme) (domain.Meme, error) {
	return execute(s.cb, func() (domain.Meme, error) { return s.inner.InsertMeme(ctx, meme) })
}

func (s *breakerStore) ListMemes(ctx context.Context) ([]domain.Meme, error) {
	return execute(s.cb, func() ([]domain.Meme, error) { return s.inner.ListMemes(ctx) })
}

func (s *breakerStore) GetMeme(ctx context.Context, id int64) (domain.Meme, error) {
	return execute(s.cb, func() (domain.Meme, error) { return s.inner.GetMeme(ctx, id) })
}

func (s *breakerStore) SetUpvotes(ctx context.Context, id int64, upvotes int64) (domain.Meme, error) {
	return execute(s.cb, func() (domain.Meme, error) { return s.inner.SetUpvotes(ctx, id, upvotes) })
}

func (s *breakerStore) TopMemes(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return execute(s.cb, func() ([]domain.LeaderboardEntry, error) { return s.inner.TopMemes(ctx, limit) })
}

func (s *breakerStore) InsertBid(ctx context.Context, bid domain.NewBid) (domain.Bid, error) {
	return execute(s.cb, func() (domain.Bid, error) { return s.inner.InsertBid(ctx, bid) })
}
