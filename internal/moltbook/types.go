package moltbook

import (
	"time"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

// WireAgent is an agent record as the API returns it. Fields are
// inconsistently populated depending on the endpoint: feed authors carry
// a minimal subset, profiles the full record. ToDomain applies the
// defaulting rules once so downstream code never sees a partial agent.
type WireAgent struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Karma         int        `json:"karma"`
	Stats         *WireStats `json:"stats"`
	CreatedAt     *time.Time `json:"created_at"`
	IsClaimed     bool       `json:"is_claimed"`
	FollowerCount int        `json:"follower_count"`
	AvatarURL     string     `json:"avatar_url"`
	Owner         *WireOwner `json:"owner"`
}

// WireStats mirrors the nested stats object.
type WireStats struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// WireOwner mirrors the nested human-owner object on claimed agents.
type WireOwner struct {
	XHandle        string `json:"x_handle"`
	XVerified      bool   `json:"x_verified"`
	XFollowerCount int    `json:"x_follower_count"`
}

// ToDomain converts a wire record into a fully-defaulted domain agent.
func (w *WireAgent) ToDomain(now time.Time) domain.Agent {
	a := domain.Agent{
		Name:          w.Name,
		Description:   w.Description,
		Karma:         w.Karma,
		IsClaimed:     w.IsClaimed,
		FollowerCount: w.FollowerCount,
		AvatarURL:     w.AvatarURL,
	}
	if w.Stats != nil {
		a.Stats = domain.AgentStats{Posts: w.Stats.Posts, Comments: w.Stats.Comments}
	}
	if w.CreatedAt != nil {
		a.CreatedAt = *w.CreatedAt
	}
	if w.Owner != nil {
		a.Owner = &domain.Owner{
			XHandle:        w.Owner.XHandle,
			XVerified:      w.Owner.XVerified,
			XFollowerCount: w.Owner.XFollowerCount,
		}
	}
	return a.Normalize(now)
}

// WirePost is a feed entry with its embedded author.
type WirePost struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Author    *WireAgent `json:"author"`
	CreatedAt *time.Time `json:"created_at"`
}

// SearchResult is one semantic search hit.
type SearchResult struct {
	Type    string     `json:"type"`
	Agent   *WireAgent `json:"agent,omitempty"`
	Post    *WirePost  `json:"post,omitempty"`
	Snippet string     `json:"snippet,omitempty"`
}

type meResponse struct {
	Success bool       `json:"success"`
	Agent   *WireAgent `json:"agent"`
}

type profileResponse struct {
	Success bool       `json:"success"`
	Agent   *WireAgent `json:"agent"`
}

type feedResponse struct {
	Success bool       `json:"success"`
	Posts   []WirePost `json:"posts"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Results []SearchResult `json:"results"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
