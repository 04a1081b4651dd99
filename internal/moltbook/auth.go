package moltbook

import (
	"context"
	"time"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

// AuthVerifier adapts the client to the session layer's Authenticator
// contract: verify a bearer credential by fetching the agent it belongs to.
type AuthVerifier struct {
	BaseURL string
}

// Me authenticates apiKey and returns its fully-defaulted agent record.
func (v *AuthVerifier) Me(ctx context.Context, apiKey string) (domain.Agent, error) {
	wire, err := NewClient(v.BaseURL, apiKey).Me(ctx)
	if err != nil {
		return domain.Agent{}, err
	}
	return wire.ToDomain(time.Now()), nil
}
