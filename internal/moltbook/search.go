package moltbook

import (
	"context"
)

// SearchProxy adapts the client to the API layer's Searcher contract,
// building a per-call client around the session's credential.
type SearchProxy struct {
	BaseURL string
}

// Search runs a semantic search with the given credential.
func (p *SearchProxy) Search(ctx context.Context, apiKey, query string, limit int) ([]SearchResult, error) {
	return NewClient(p.BaseURL, apiKey).Search(ctx, query, limit)
}
