// Package caption produces the AI caption and vibe attached to new memes.
package caption

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Fallback values returned whenever generation fails for any reason.
const (
	FallbackCaption = "YOLO to the moon!"
	FallbackVibe    = "Neon Chaos Mode"
)

// Provider defines the interface for text generation backends.
type Provider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// CompletionOptions configures completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}

// Caption is the generated pair stored on a meme.
type Caption struct {
	Caption string `json:"caption"`
	Vibe    string `json:"vibe"`
}

// Fallback returns the fixed caption used when generation fails.
func Fallback() Caption {
	return Caption{Caption: FallbackCaption, Vibe: FallbackVibe}
}

var errUnavailable = errors.New("caption provider is not available")

// Generator wraps a Provider with prompt construction, response parsing and
// the fallback contract: Generate never fails.
type Generator struct {
	provider   Provider
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	logger     *zap.Logger
	onFallback func(reason error)
}

// Option customises a Generator.
type Option func(*Generator)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithFallbackHook is called every time the fallback is returned.
func WithFallbackHook(fn func(reason error)) Option {
	return func(g *Generator) { g.onFallback = fn }
}

// WithCircuitBreaker skips the provider while it keeps failing.
func WithCircuitBreaker(name string, minRequests uint32, openFor time.Duration) Option {
	return func(g *Generator) {
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= minRequests
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				g.logger.Warn("Caption breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
}

// NewGenerator creates a caption generator. A nil provider always yields the fallback.
func NewGenerator(provider Provider, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		provider: provider,
		timeout:  15 * time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a caption and vibe for a meme, or the fallback pair.
func (g *Generator) Generate(ctx context.Context, title string, tags []string, imageURL string) Caption {
	result, err := g.generate(ctx, title, tags, imageURL)
	if err != nil {
		g.logger.Warn("Caption generation failed, using fallback",
			zap.String("title", title),
			zap.Error(err),
		)
		if g.onFallback != nil {
			g.onFallback(err)
		}
		return Fallback()
	}
	return result
}

func (g *Generator) generate(ctx context.Context, title string, tags []string, imageURL string) (result Caption, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("caption provider panicked: %v", r)
		}
	}()

	if g.provider == nil || !g.provider.IsAvailable() {
		return Caption{}, errUnavailable
	}

	prompt := BuildPrompt(title, tags, imageURL)
	call := func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.provider.Complete(callCtx, prompt, CompletionOptions{
			Temperature: 0.9,
			MaxTokens:   200,
			Format:      "json",
		})
	}

	var raw interface{}
	if g.breaker != nil {
		raw, err = g.breaker.Execute(call)
	} else {
		raw, err = call()
	}
	if err != nil {
		return Caption{}, fmt.Errorf("failed to get caption response: %w", err)
	}

	text, _ := raw.(string)
	return ParseResponse(text)
}

// BuildPrompt creates the generation prompt for a meme.
func BuildPrompt(title string, tags []string, imageURL string) string {
	return fmt.Sprintf(`Generate a funny caption and a cyberpunk vibe description for a meme with title "%s", tags [%s], and image URL %s. Return only JSON, no prose and no markdown: { "caption": string, "vibe": string }`,
		title, strings.Join(tags, ", "), imageURL)
}

// ParseResponse decodes a provider response, tolerating a surrounding code fence.
func ParseResponse(response string) (Caption, error) {
	cleaned := StripCodeFence(response)
	if cleaned == "" {
		return Caption{}, errors.New("empty caption response")
	}

	var c Caption
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return Caption{}, fmt.Errorf("failed to parse caption JSON: %w", err)
	}
	if strings.TrimSpace(c.Caption) == "" || strings.TrimSpace(c.Vibe) == "" {
		return Caption{}, errors.New("caption response missing caption or vibe")
	}
	return c, nil
}

// StripCodeFence removes a markdown code fence (with or without a language
// tag) wrapped around a payload.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	response = strings.TrimPrefix(response, "```")
	// Drop the info string, e.g. "json".
	if nl := strings.IndexByte(response, '\n'); nl >= 0 {
		if info := strings.TrimSpace(response[:nl]); !strings.ContainsAny(info, "{[") {
			response = response[nl+1:]
		}
	} else {
		response = strings.TrimPrefix(response, "json")
	}
	response = strings.TrimSpace(response)
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
