package model

import "time"

// Message is one entry in the conversation attached to a match.
// Messages are keyed by match id and go away with the match.
type Message struct {
	ID        int64     `json:"id"`
	MatchID   int64     `json:"match_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	SenderName string `json:"sender_name,omitempty"`
}
