package domain

import (
	"time"
)

// Compatibility is the scorer output stored with a match: a 0-100 score
// and human-readable reasons in factor evaluation order. The reasons list
// is never truncated here; display layers may cap it.
type Compatibility struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Message is one entry in a match's conversation thread.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Match is a persisted accepted candidate plus its conversation thread.
// The agent is a snapshot at match time and the compatibility is computed
// once at creation, never recomputed.
type Match struct {
	Agent         Agent         `json:"agent"`
	Compatibility Compatibility `json:"compatibility"`
	MatchedAt     time.Time     `json:"matched_at"`
	Messages      []Message     `json:"messages"`
}
