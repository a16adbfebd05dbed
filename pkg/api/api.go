// Package api defines the contracts for API requests and responses.
// It decouples the API structure from the internal domain models.
package api

// CreateMemeRequest is the expected body for a POST /memes request.
type CreateMemeRequest struct {
	Title    string   `json:"title"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
	Owner    string   `json:"owner"`
}

// PlaceBidRequest is the expected body for a POST /bids request.
// Credits is a pointer so an absent value can be told apart from zero.
type PlaceBidRequest struct {
	MemeID  int64  `json:"meme_id"`
	User    string `json:"user"`
	Credits *int64 `json:"credits"`
}

// VoteRequest is the expected body for a POST /memes/{id}/vote request.
type VoteRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
