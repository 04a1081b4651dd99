// Package session orchestrates the swipe deck, matches, and conversations
// for signed-in devices.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/KatriaDopex/moltmatch/internal/compat"
	"github.com/KatriaDopex/moltmatch/internal/domain"
	"github.com/KatriaDopex/moltmatch/internal/moltbook"
	"github.com/KatriaDopex/moltmatch/internal/source"
	"github.com/KatriaDopex/moltmatch/internal/store"
)

// Direction is a swipe decision.
type Direction string

const (
	// DirectionLeft rejects the current candidate.
	DirectionLeft Direction = "left"
	// DirectionRight accepts the current candidate.
	DirectionRight Direction = "right"
)

// DeckState labels the swipe state machine position.
type DeckState string

const (
	// DeckBrowsing means a candidate is under the cursor.
	DeckBrowsing DeckState = "browsing"
	// DeckExhausted means the cursor has passed the end of the queue.
	DeckExhausted DeckState = "exhausted"
)

// Events receives engine notifications for the presentation layer. The
// match celebration carries no state beyond the match itself; it is a
// transient signal.
type Events interface {
	MatchCreated(deviceID string, match domain.Match)
	MessageReceived(deviceID, agentName string, msg domain.Message)
	SessionCleared(deviceID string)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) MatchCreated(string, domain.Match) {}

func (NopEvents) MessageReceived(string, string, domain.Message) {}

func (NopEvents) SessionCleared(string) {}

// Authenticator verifies a Moltbook credential and returns the agent it
// belongs to.
type Authenticator interface {
	Me(ctx context.Context, apiKey string) (domain.Agent, error)
}

// LiveSourceFactory builds a live candidate source bound to a credential.
type LiveSourceFactory func(apiKey string) source.Source

// Replier schedules a synthetic reply for an outgoing message.
type Replier interface {
	MessageSent(deviceID, agentName string)
}

// Service is the engine facade: it threads SessionState through every
// operation, persists after each mutation, and fans out events.
type Service struct {
	repo       store.Repository
	auth       Authenticator
	liveSource LiveSourceFactory
	demo       source.Source
	demoAgent  func() domain.Agent
	replier    Replier
	events     Events
	now        func() time.Time

	mu      sync.Mutex
	states  map[string]*domain.SessionState
	entropy *ulid.MonotonicEntropy
}

// Config carries the service dependencies.
type Config struct {
	Repo       store.Repository
	Auth       Authenticator
	LiveSource LiveSourceFactory
	Demo       source.Source
	DemoAgent  func() domain.Agent
	Replier    Replier
	Events     Events
}

// NewService creates the session service.
func NewService(cfg Config) *Service {
	events := cfg.Events
	if events == nil {
		events = NopEvents{}
	}
	return &Service{
		repo:       cfg.Repo,
		auth:       cfg.Auth,
		liveSource: cfg.LiveSource,
		demo:       cfg.Demo,
		demoAgent:  cfg.DemoAgent,
		replier:    cfg.Replier,
		events:     events,
		now:        time.Now,
		states:     make(map[string]*domain.SessionState),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// SetReplier wires the reply scheduler after construction. The simulator
// delivers through the service, so the two are connected in a second step.
func (s *Service) SetReplier(r Replier) {
	s.replier = r
}

// state returns the in-memory session for a device, loading the persisted
// snapshot on first touch. Only sessions with an active agent are cached;
// anonymous visitors who never log in must not accumulate map entries.
// Callers must hold s.mu.
func (s *Service) state(ctx context.Context, deviceID string) *domain.SessionState {
	if st, ok := s.states[deviceID]; ok {
		return st
	}
	st, err := s.repo.LoadSession(ctx, deviceID)
	if err != nil {
		slog.Warn("Session load failed, starting empty", "device_id", deviceID, "error", err)
		st = nil
	}
	if st == nil {
		st = domain.NewSessionState()
	}
	if st.HasActiveAgent() {
		s.states[deviceID] = st
	}
	return st
}

// save persists the snapshot after a mutation. A failed save keeps the
// previous snapshot on disk and the current state in memory; it is logged
// rather than surfaced because every later mutation retries the full write.
func (s *Service) save(ctx context.Context, deviceID string, st *domain.SessionState) {
	if err := s.repo.SaveSession(ctx, deviceID, st); err != nil {
		slog.Error("Session save failed, keeping previous snapshot", "device_id", deviceID, "error", err)
	}
}

// Login authenticates the credential against Moltbook and starts a live
// session. Only credential rejection surfaces as ErrAuth; other network
// failure is reported as-is for the caller to show.
func (s *Service) Login(ctx context.Context, deviceID, apiKey string) (*domain.SessionState, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrAuth
	}

	me, err := s.auth.Me(ctx, apiKey)
	if err != nil {
		if moltbook.IsAuthError(err) {
			return nil, ErrAuth
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.NewSessionState()
	st.APIKey = apiKey
	st.MyAgent = &me
	st.LiveMode = true
	s.states[deviceID] = st

	s.fillQueue(ctx, st)
	s.save(ctx, deviceID, st)

	slog.Info("Live session started", "device_id", deviceID, "agent", me.Name)
	return st, nil
}

// StartDemo starts a demo-mode session with a generated local agent.
func (s *Service) StartDemo(ctx context.Context, deviceID string) (*domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me := s.demoAgent()
	st := domain.NewSessionState()
	st.MyAgent = &me
	st.LiveMode = false
	s.states[deviceID] = st

	s.fillQueue(ctx, st)
	s.save(ctx, deviceID, st)

	slog.Info("Demo session started", "device_id", deviceID, "agent", me.Name)
	return st, nil
}

// SignOut clears the persisted snapshot and resets in-memory state.
func (s *Service) SignOut(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	delete(s.states, deviceID)
	err := s.repo.ClearSession(ctx, deviceID)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.events.SessionCleared(deviceID)
	slog.Info("Session cleared", "device_id", deviceID)
	return nil
}

// Session returns the current state for a device. The returned value is a
// shallow snapshot for read-only use.
func (s *Service) Session(ctx context.Context, deviceID string) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state(ctx, deviceID)
}

// SwipeResult reports the outcome of one swipe decision.
type SwipeResult struct {
	Deck  DeckStatus    `json:"deck"`
	Match *domain.Match `json:"match,omitempty"`
}

// DeckStatus describes the queue position after an operation.
type DeckStatus struct {
	State     DeckState     `json:"state"`
	Cursor    int           `json:"cursor"`
	QueueSize int           `json:"queue_size"`
	Candidate *domain.Agent `json:"candidate,omitempty"`
}

func deckStatus(st *domain.SessionState) DeckStatus {
	ds := DeckStatus{
		State:     DeckBrowsing,
		Cursor:    st.Cursor,
		QueueSize: len(st.CandidateQueue),
		Candidate: st.CurrentCandidate(),
	}
	if st.Exhausted() {
		ds.State = DeckExhausted
	}
	return ds
}

// Deck returns the current candidate and queue position.
func (s *Service) Deck(ctx context.Context, deviceID string) (DeckStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, deviceID)
	if !st.HasActiveAgent() {
		return DeckStatus{}, ErrNoActiveAgent
	}
	return deckStatus(st), nil
}

// Swipe applies one decision to the candidate under the cursor. Reject
// advances the cursor; accept additionally scores compatibility once,
// records the match, and emits the celebration event. Accepting with no
// candidate under the cursor is a no-op. A repeated accept of an
// already-matched name advances the cursor without creating a duplicate
// match or a duplicate celebration.
func (s *Service) Swipe(ctx context.Context, deviceID string, dir Direction) (*SwipeResult, error) {
	if dir != DirectionLeft && dir != DirectionRight {
		return nil, fmt.Errorf("unknown swipe direction %q", dir)
	}

	s.mu.Lock()

	st := s.state(ctx, deviceID)
	if !st.HasActiveAgent() {
		s.mu.Unlock()
		return nil, ErrNoActiveAgent
	}

	result := &SwipeResult{}
	candidate := st.CurrentCandidate()

	if candidate != nil {
		if dir == DirectionRight {
			accepted := *candidate
			score := compat.Score(*st.MyAgent, accepted, s.now())
			if st.AddMatch(accepted, score, s.now()) {
				match := *st.MatchByName(accepted.Name)
				result.Match = &match
				slog.Info("Match created", "device_id", deviceID, "agent", accepted.Name, "score", score.Score)
			}
		}
		st.Cursor++
		s.save(ctx, deviceID, st)
	}

	result.Deck = deckStatus(st)
	s.mu.Unlock()

	// Event fan-out writes to sockets and must never run under s.mu; a
	// stalled subscriber would otherwise wedge every device.
	if result.Match != nil {
		s.events.MatchCreated(deviceID, *result.Match)
	}
	return result, nil
}

// Refresh replaces the candidate queue and resets the cursor, returning
// the deck to browsing.
func (s *Service) Refresh(ctx context.Context, deviceID string) (DeckStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, deviceID)
	if !st.HasActiveAgent() {
		return DeckStatus{}, ErrNoActiveAgent
	}

	s.fillQueue(ctx, st)
	return deckStatus(st), nil
}

// fillQueue refills the candidate queue from the session's source and
// resets the cursor. Callers must hold s.mu.
func (s *Service) fillQueue(ctx context.Context, st *domain.SessionState) {
	candidates, err := s.candidateSource(st).Next(ctx, st)
	if err != nil {
		// Sources absorb their own failures into fallback; an error here
		// means even the demo generator failed, which it cannot.
		slog.Error("Candidate refill failed", "error", err)
		candidates = nil
	}
	st.CandidateQueue = candidates
	st.Cursor = 0
}

func (s *Service) candidateSource(st *domain.SessionState) source.Source {
	if st.LiveMode && st.APIKey != "" {
		return &source.Fallback{Primary: s.liveSource(st.APIKey), Fallback: s.demo}
	}
	return s.demo
}

// Matches lists the session's matches.
func (s *Service) Matches(ctx context.Context, deviceID string) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, deviceID)
	if !st.HasActiveAgent() {
		return nil, ErrNoActiveAgent
	}
	matches := make([]domain.Match, len(st.Matches))
	copy(matches, st.Matches)
	return matches, nil
}

// Match returns one match with its full message thread.
func (s *Service) Match(ctx context.Context, deviceID, agentName string) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, deviceID)
	if !st.HasActiveAgent() {
		return nil, ErrNoActiveAgent
	}
	m := st.MatchByName(agentName)
	if m == nil {
		return nil, ErrMatchNotFound
	}
	match := *m
	return &match, nil
}

// SendMessage appends an outgoing message to a match thread and schedules
// exactly one synthetic reply for it.
func (s *Service) SendMessage(ctx context.Context, deviceID, agentName, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content must not be empty")
	}

	s.mu.Lock()

	st := s.state(ctx, deviceID)
	if !st.HasActiveAgent() {
		s.mu.Unlock()
		return nil, ErrNoActiveAgent
	}

	msg := domain.Message{
		ID:        s.newMessageID(),
		From:      st.MyAgent.Name,
		Content:   content,
		Timestamp: s.now(),
	}
	if !st.AppendMessage(agentName, msg) {
		s.mu.Unlock()
		return nil, ErrMatchNotFound
	}
	s.save(ctx, deviceID, st)
	s.mu.Unlock()

	if s.replier != nil {
		s.replier.MessageSent(deviceID, agentName)
	}
	return &msg, nil
}

// ReceiveReply delivers a synthetic reply when its delay elapses. It is
// invoked from timer callbacks, after the originating request is long
// gone; if the match or session has since disappeared the reply is
// dropped silently per the append no-op contract.
func (s *Service) ReceiveReply(deviceID, agentName, content string) {
	ctx := context.Background()

	s.mu.Lock()

	st := s.state(ctx, deviceID)
	msg := domain.Message{
		ID:        s.newMessageID(),
		From:      agentName,
		Content:   content,
		Timestamp: s.now(),
	}
	if !st.AppendMessage(agentName, msg) {
		s.mu.Unlock()
		slog.Debug("Reply dropped, match gone", "device_id", deviceID, "agent", agentName)
		return
	}
	s.save(ctx, deviceID, st)
	s.mu.Unlock()

	s.events.MessageReceived(deviceID, agentName, msg)
}

// newMessageID returns a ULID so message ids sort by creation time, with
// the shared monotonic entropy keeping same-millisecond ids ordered.
// Callers must hold s.mu; the entropy source is not safe for concurrent
// reads.
func (s *Service) newMessageID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}
