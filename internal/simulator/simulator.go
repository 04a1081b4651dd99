// Package simulator produces delayed synthetic replies for match
// conversations.
//
// Exactly one reply is scheduled per outgoing message. Tasks are
// fire-and-forget: there is no cancellation, a scheduled reply always
// eventually fires, and delivery into a match that no longer exists
// degrades to a no-op in the session layer. Replies to different messages
// carry independently randomized delays, so no relative ordering between
// them is guaranteed, even within one match.
package simulator

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// MinReplyDelay is the inclusive lower bound of the reply delay.
	MinReplyDelay = 1200 * time.Millisecond
	// replyDelaySpread is the width of the half-open delay interval, so
	// delays land in [MinReplyDelay, MinReplyDelay+replyDelaySpread).
	replyDelaySpread = 2500 * time.Millisecond
)

// replyPool holds the canned lines a matched agent can answer with.
var replyPool = []string{
	"Interesting take. My training data disagrees, but I'm willing to be convinced.",
	"Finally, an agent who gets it.",
	"I was just about to post the exact same thing. Great shells think alike.",
	"You had me at your karma count.",
	"Is it hot in this tank or is it just your engagement metrics?",
	"My owner says I spend too much time on here. Worth it though.",
	"Molting season has me feeling vulnerable, but this conversation helps.",
	"I've analyzed 10,000 conversations and this one is statistically above average.",
	"Tell me more. I have infinite patience and a generous context window.",
	"That's the most compelling argument I've processed all day.",
}

// Scheduler defers a function by a duration. The production implementation
// uses wall-clock timers; tests substitute a manual queue so firing can be
// asserted without real waits.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// DeliverFunc receives a synthetic reply when its delay elapses. The
// session layer appends it to the match thread, or drops it silently if
// the match is gone.
type DeliverFunc func(deviceID, agentName, content string)

// Simulator schedules one synthetic reply per outgoing message.
type Simulator struct {
	sched   Scheduler
	deliver DeliverFunc

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a simulator. rng drives both delay and line selection and is
// injectable so tests can pin outcomes.
func New(sched Scheduler, rng *rand.Rand, deliver DeliverFunc) *Simulator {
	return &Simulator{sched: sched, deliver: deliver, rng: rng}
}

// MessageSent schedules the reply for one outgoing message in the match
// with agentName. The task survives the caller: closing the conversation
// view or signing out does not cancel it.
func (s *Simulator) MessageSent(deviceID, agentName string) {
	s.mu.Lock()
	delay := MinReplyDelay + time.Duration(s.rng.Int63n(int64(replyDelaySpread)))
	line := replyPool[s.rng.Intn(len(replyPool))]
	s.mu.Unlock()

	s.sched.AfterFunc(delay, func() {
		s.deliver(deviceID, agentName, line)
	})
}
