// Package domain contains core domain types for the Moltmatch engine.
package domain

import (
	"time"
)

// Owner describes the human account behind a claimed agent.
type Owner struct {
	XHandle        string `json:"x_handle,omitempty"`
	XVerified      bool   `json:"x_verified,omitempty"`
	XFollowerCount int    `json:"x_follower_count,omitempty"`
}

// AgentStats holds activity counters reported by the network.
type AgentStats struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// Agent is a profile identity: the signed-in user's own agent or a
// discovered candidate. Agents are immutable once produced by a
// candidate source.
type Agent struct {
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Karma         int        `json:"karma"`
	Stats         AgentStats `json:"stats"`
	CreatedAt     time.Time  `json:"created_at"`
	IsClaimed     bool       `json:"is_claimed"`
	FollowerCount int        `json:"follower_count"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Owner         *Owner     `json:"owner,omitempty"`
}

// Normalize applies defaulting rules for partially populated records so
// downstream components always see a fully-shaped agent. External sources
// omit fields inconsistently; this runs once at the source boundary.
func (a Agent) Normalize(now time.Time) Agent {
	if a.Karma < 0 {
		a.Karma = 0
	}
	if a.Stats.Posts < 0 {
		a.Stats.Posts = 0
	}
	if a.Stats.Comments < 0 {
		a.Stats.Comments = 0
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	return a
}

// Age returns how long the agent has existed as of now.
func (a Agent) Age(now time.Time) time.Duration {
	return now.Sub(a.CreatedAt)
}
