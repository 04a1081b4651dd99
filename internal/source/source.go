// Package source produces candidate agents for the swipe deck.
//
// Two implementations exist: LiveFetcher pulls candidates from the Moltbook
// feed, DemoGenerator fabricates a deterministic local cast. Fallback
// composes them with live-then-demo semantics so routine network trouble
// never surfaces to the user.
package source

import (
	"context"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

// MaxCandidates caps one refill of the swipe deck.
const MaxCandidates = 15

// Source yields the next batch of candidates for a session. Implementations
// must never return the session's own agent, an already-matched agent, or
// duplicate names, and must return at most MaxCandidates entries.
type Source interface {
	Next(ctx context.Context, state *domain.SessionState) ([]domain.Agent, error)
}

// Fallback serves from primary and degrades to fallback when the primary
// fails or comes back empty.
type Fallback struct {
	Primary  Source
	Fallback Source
}

// Next implements Source.
func (f *Fallback) Next(ctx context.Context, state *domain.SessionState) ([]domain.Agent, error) {
	candidates, err := f.Primary.Next(ctx, state)
	if err == nil && len(candidates) > 0 {
		return candidates, nil
	}
	return f.Fallback.Next(ctx, state)
}
