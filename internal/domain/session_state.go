package domain

import (
	"time"
)

// SessionState is the full mutable state for one signed-in session. It is
// created at sign-in or demo start, mutated by every swipe and message,
// persisted after every mutation, and reset to empty on sign-out. All state
// is carried explicitly; there are no package-level session globals.
type SessionState struct {
	APIKey         string  `json:"api_key,omitempty"`
	MyAgent        *Agent  `json:"my_agent,omitempty"`
	LiveMode       bool    `json:"live_mode"`
	Matches        []Match `json:"matches"`
	CandidateQueue []Agent `json:"candidate_queue"`
	Cursor         int     `json:"cursor"`
}

// NewSessionState returns the defined empty session.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// HasActiveAgent reports whether a signed-in or demo agent is present.
func (s *SessionState) HasActiveAgent() bool {
	return s.MyAgent != nil && s.MyAgent.Name != ""
}

// MatchByName returns the match for an agent name, or nil.
func (s *SessionState) MatchByName(name string) *Match {
	for i := range s.Matches {
		if s.Matches[i].Agent.Name == name {
			return &s.Matches[i]
		}
	}
	return nil
}

// AddMatch appends a new match with an empty message thread. A second
// accept on an already-matched name is a no-op; it returns true only when
// a match was actually created.
func (s *SessionState) AddMatch(agent Agent, compat Compatibility, matchedAt time.Time) bool {
	if s.MatchByName(agent.Name) != nil {
		return false
	}
	s.Matches = append(s.Matches, Match{
		Agent:         agent,
		Compatibility: compat,
		MatchedAt:     matchedAt,
		Messages:      []Message{},
	})
	return true
}

// AppendMessage appends to a match's thread. Messages are append-only.
// If no match exists for the name the state is left unchanged and false
// is returned; delayed reply tasks rely on this being a no-op rather
// than an error after the match is gone.
func (s *SessionState) AppendMessage(agentName string, msg Message) bool {
	m := s.MatchByName(agentName)
	if m == nil {
		return false
	}
	m.Messages = append(m.Messages, msg)
	return true
}

// ExcludedNames returns the set of agent names a candidate source must
// never produce: the session's own agent and every matched agent.
func (s *SessionState) ExcludedNames() map[string]bool {
	excluded := make(map[string]bool, len(s.Matches)+1)
	if s.MyAgent != nil {
		excluded[s.MyAgent.Name] = true
	}
	for i := range s.Matches {
		excluded[s.Matches[i].Agent.Name] = true
	}
	return excluded
}

// CurrentCandidate returns the candidate under the cursor, or nil when
// the queue is exhausted.
func (s *SessionState) CurrentCandidate() *Agent {
	if s.Cursor < 0 || s.Cursor >= len(s.CandidateQueue) {
		return nil
	}
	return &s.CandidateQueue[s.Cursor]
}

// Exhausted reports whether the cursor has moved past the end of the
// candidate queue.
func (s *SessionState) Exhausted() bool {
	return s.Cursor >= len(s.CandidateQueue)
}
