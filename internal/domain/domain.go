// Package domain holds the marketplace records shared by the store, the
// mutation service and the realtime layer.
package domain

import "time"

// DefaultImageURL replaces an empty image reference on new memes.
const DefaultImageURL = "https://picsum.photos/200"

// LeaderboardSize is the number of memes kept in the leaderboard.
const LeaderboardSize = 10

// Meme is the primary tradeable and votable record.
// Upvotes has no floor and may go negative.
type Meme struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	Tags      []string  `json:"tags"`
	OwnerID   int64     `json:"owner_id"`
	Caption   string    `json:"caption"`
	Vibe      string    `json:"vibe"`
	Upvotes   int64     `json:"upvotes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMeme is a meme before the store assigns its id and timestamp.
type NewMeme struct {
	Title    string   `json:"title"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
	OwnerID  int64    `json:"owner_id"`
	Caption  string   `json:"caption"`
	Vibe     string   `json:"vibe"`
}

// Bid is a credit offer on a meme. It is never checked against, nor
// deducted from, the bidder's balance.
type Bid struct {
	ID      int64 `json:"id"`
	MemeID  int64 `json:"meme_id"`
	UserID  int64 `json:"user_id"`
	Credits int64 `json:"credits"`
}

// NewBid is a bid before the store assigns its id.
type NewBid struct {
	MemeID  int64 `json:"meme_id"`
	UserID  int64 `json:"user_id"`
	Credits int64 `json:"credits"`
}

// User is an entry of the user directory.
type User struct {
	Handle  string `json:"handle"`
	ID      int64  `json:"id"`
	Credits int64  `json:"credits"`
}

// LeaderboardEntry is the projection of a meme shown on the leaderboard.
type LeaderboardEntry struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Upvotes int64  `json:"upvotes"`
}

// VoteDirection is the direction of a vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Delta returns the upvote change for the direction: +1 for up, -1 for
// down. Directions are validated before they reach the store.
func (d VoteDirection) Delta() int64 {
	if d == VoteUp {
		return 1
	}
	return -1
}
