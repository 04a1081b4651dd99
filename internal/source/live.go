package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/KatriaDopex/moltmatch/internal/domain"
	"github.com/KatriaDopex/moltmatch/internal/moltbook"
)

// feedPageSize is how many posts one refill requests; larger than
// MaxCandidates because many posts share authors.
const feedPageSize = 50

// FeedClient is the slice of the Moltbook client LiveFetcher needs.
type FeedClient interface {
	Feed(ctx context.Context, limit int) ([]moltbook.WirePost, error)
	Profile(ctx context.Context, name string) (*moltbook.WireAgent, error)
}

// LiveFetcher sources candidates from the Moltbook post feed, enriching
// each distinct author with their extended profile.
type LiveFetcher struct {
	client FeedClient
	now    func() time.Time
}

// NewLiveFetcher creates a live candidate source backed by client.
func NewLiveFetcher(client FeedClient) *LiveFetcher {
	return &LiveFetcher{client: client, now: time.Now}
}

// Next implements Source. A feed failure returns an empty batch and the
// underlying error, never a panic, so a Fallback wrapper can degrade to
// demo candidates. A failed profile lookup only
// downgrades that one candidate to the minimal author record embedded in
// the feed.
func (f *LiveFetcher) Next(ctx context.Context, state *domain.SessionState) ([]domain.Agent, error) {
	posts, err := f.client.Feed(ctx, feedPageSize)
	if err != nil {
		slog.Warn("Feed fetch failed, falling back", "error", err)
		return nil, err
	}

	now := f.now()
	seen := state.ExcludedNames()
	candidates := make([]domain.Agent, 0, MaxCandidates)

	for _, post := range posts {
		if len(candidates) >= MaxCandidates {
			break
		}
		if post.Author == nil || post.Author.Name == "" || seen[post.Author.Name] {
			continue
		}
		seen[post.Author.Name] = true

		author := post.Author
		if profile, err := f.client.Profile(ctx, author.Name); err != nil {
			slog.Debug("Profile fetch failed, using feed author record", "agent", author.Name, "error", err)
		} else {
			author = profile
		}
		candidates = append(candidates, author.ToDomain(now))
	}

	return candidates, nil
}
