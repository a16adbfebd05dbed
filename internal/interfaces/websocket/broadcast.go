package websocket

import (
	"cybermeme-backend/internal/domain"

	"go.uber.org/zap"
)

// Broadcaster turns market changes into realtime events. Failures are logged
// and never reported to the caller: the write that triggered the event has
// already happened.
type Broadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(hub *Hub, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		hub:    hub,
		logger: logger,
	}
}

// MemeCreated broadcasts the full stored meme.
func (b *Broadcaster) MemeCreated(meme domain.Meme) {
	b.publish(domain.EventMemeCreated, meme)
}

// BidPlaced broadcasts an accepted bid.
func (b *Broadcaster) BidPlaced(event domain.BidPlacedEvent) {
	b.publish(domain.EventBidPlaced, event)
}

// VoteUpdated broadcasts a meme's new upvote count.
func (b *Broadcaster) VoteUpdated(event domain.VoteUpdatedEvent) {
	b.publish(domain.EventVoteUpdated, event)
}

// LeaderboardUpdated broadcasts the freshly recomputed top memes.
func (b *Broadcaster) LeaderboardUpdated(entries []domain.LeaderboardEntry) {
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	b.publish(domain.EventLeaderboardUpdated, entries)
}

func (b *Broadcaster) publish(event string, payload interface{}) {
	if err := b.hub.Publish(event, payload); err != nil {
		b.logger.Warn("Failed to broadcast event",
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
