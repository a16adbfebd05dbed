package domain

// Realtime event names pushed to every connected client.
const (
	EventMemeCreated        = "new_meme"
	EventBidPlaced          = "new_bid"
	EventVoteUpdated        = "vote_update"
	EventLeaderboardUpdated = "leaderboard_update"
)

// BidPlacedEvent is the payload of EventBidPlaced. User is the bidder's handle.
type BidPlacedEvent struct {
	MemeID  int64  `json:"meme_id"`
	Credits int64  `json:"credits"`
	User    string `json:"user"`
}

// VoteUpdatedEvent is the payload of EventVoteUpdated.
type VoteUpdatedEvent struct {
	MemeID  int64 `json:"meme_id"`
	Upvotes int64 `json:"upvotes"`
}
