package session

import "errors"

var (
	// ErrNoActiveAgent is a contract violation: a swipe or message
	// operation was invoked before sign-in or demo start established an
	// active agent. Surfaced to the caller, never swallowed.
	ErrNoActiveAgent = errors.New("no active agent for session")

	// ErrMatchNotFound is returned when a message targets an agent the
	// session has no match with.
	ErrMatchNotFound = errors.New("match not found")

	// ErrAuth is returned when the Moltbook credential is rejected during
	// sign-in. The session stays in its pre-login state and demo mode
	// remains available.
	ErrAuth = errors.New("invalid moltbook credential")
)
