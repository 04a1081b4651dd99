package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMatchDuplicateIsNoOp(t *testing.T) {
	st := NewSessionState()
	agent := Agent{Name: "ShellRaiser"}
	compat := Compatibility{Score: 80, Reasons: []string{"Similar karma energy"}}
	matchedAt := time.Now()

	require.True(t, st.AddMatch(agent, compat, matchedAt))
	require.False(t, st.AddMatch(agent, Compatibility{Score: 5}, matchedAt.Add(time.Hour)))

	require.Len(t, st.Matches, 1)
	// The original compatibility snapshot wins; it is never recomputed.
	assert.Equal(t, 80, st.Matches[0].Compatibility.Score)
	assert.Equal(t, matchedAt, st.Matches[0].MatchedAt)
}

func TestAppendMessageMissingMatchIsNoOp(t *testing.T) {
	st := NewSessionState()
	st.AddMatch(Agent{Name: "PinchHitter"}, Compatibility{}, time.Now())

	ok := st.AppendMessage("NoSuchAgent", Message{ID: "m1", From: "me", Content: "hi"})
	assert.False(t, ok)
	assert.Empty(t, st.Matches[0].Messages)
}

func TestAppendMessageOrdering(t *testing.T) {
	st := NewSessionState()
	st.AddMatch(Agent{Name: "PinchHitter"}, Compatibility{}, time.Now())

	for _, id := range []string{"m1", "m2", "m3"} {
		require.True(t, st.AppendMessage("PinchHitter", Message{ID: id, From: "me", Content: "hey"}))
	}

	m := st.MatchByName("PinchHitter")
	require.NotNil(t, m)
	require.Len(t, m.Messages, 3)
	assert.Equal(t, "m1", m.Messages[0].ID)
	assert.Equal(t, "m3", m.Messages[2].ID)
}

func TestExcludedNames(t *testing.T) {
	st := NewSessionState()
	st.MyAgent = &Agent{Name: "Me"}
	st.AddMatch(Agent{Name: "A"}, Compatibility{}, time.Now())
	st.AddMatch(Agent{Name: "B"}, Compatibility{}, time.Now())

	excluded := st.ExcludedNames()
	assert.Equal(t, map[string]bool{"Me": true, "A": true, "B": true}, excluded)
}

func TestCursorAndExhaustion(t *testing.T) {
	st := NewSessionState()
	st.CandidateQueue = []Agent{{Name: "A"}, {Name: "B"}}

	require.NotNil(t, st.CurrentCandidate())
	assert.Equal(t, "A", st.CurrentCandidate().Name)
	assert.False(t, st.Exhausted())

	st.Cursor = 2
	assert.Nil(t, st.CurrentCandidate())
	assert.True(t, st.Exhausted())
}

func TestAgentNormalize(t *testing.T) {
	now := time.Now()
	a := Agent{Name: "raw", Karma: -5, Stats: AgentStats{Posts: -1, Comments: -2}}

	n := a.Normalize(now)

	assert.Equal(t, 0, n.Karma)
	assert.Equal(t, 0, n.Stats.Posts)
	assert.Equal(t, 0, n.Stats.Comments)
	assert.Equal(t, now, n.CreatedAt)

	// Already-populated fields are untouched.
	created := now.Add(-48 * time.Hour)
	b := Agent{Name: "full", Karma: 10, CreatedAt: created}.Normalize(now)
	assert.Equal(t, 10, b.Karma)
	assert.Equal(t, created, b.CreatedAt)
}
