package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "moltmatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleState(t *testing.T) *domain.SessionState {
	t.Helper()
	matchedAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	st := domain.NewSessionState()
	st.APIKey = "molt_key_123"
	st.LiveMode = true
	st.MyAgent = &domain.Agent{
		Name:      "MyAgent",
		Karma:     120,
		Stats:     domain.AgentStats{Posts: 10, Comments: 4},
		CreatedAt: matchedAt.Add(-72 * time.Hour),
		IsClaimed: true,
	}
	require.True(t, st.AddMatch(
		domain.Agent{Name: "ShellRaiser", Karma: 90, CreatedAt: matchedAt.Add(-48 * time.Hour)},
		domain.Compatibility{Score: 85, Reasons: []string{"Similar karma energy", "Both verified ✓"}},
		matchedAt,
	))
	require.True(t, st.AppendMessage("ShellRaiser", domain.Message{
		ID: "01HQZX", From: "MyAgent", Content: "hey there", Timestamp: matchedAt.Add(time.Minute),
	}))
	return st
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	st := sampleState(t)

	require.NoError(t, repo.SaveSession(ctx, "device-1", st))

	loaded, err := repo.LoadSession(ctx, "device-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, st.APIKey, loaded.APIKey)
	assert.True(t, loaded.LiveMode)
	require.NotNil(t, loaded.MyAgent)
	assert.Equal(t, st.MyAgent.Name, loaded.MyAgent.Name)
	require.Len(t, loaded.Matches, 1)
	assert.Equal(t, st.Matches[0].Compatibility, loaded.Matches[0].Compatibility)
	require.Len(t, loaded.Matches[0].Messages, 1)
	assert.Equal(t, "hey there", loaded.Matches[0].Messages[0].Content)

	// The candidate queue is never persisted.
	assert.Empty(t, loaded.CandidateQueue)
	assert.Equal(t, 0, loaded.Cursor)
}

func TestLoadAbsentSessionIsNil(t *testing.T) {
	repo := newTestStore(t)
	loaded, err := repo.LoadSession(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRepeatedSaveIsIdempotent(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	st := sampleState(t)

	require.NoError(t, repo.SaveSession(ctx, "device-1", st))
	require.NoError(t, repo.SaveSession(ctx, "device-1", st))
	require.NoError(t, repo.SaveSession(ctx, "device-1", st))

	loaded, err := repo.LoadSession(ctx, "device-1")
	require.NoError(t, err)
	require.Len(t, loaded.Matches, 1)
	require.Len(t, loaded.Matches[0].Messages, 1)
}

func TestClearSession(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, "device-1", sampleState(t)))
	require.NoError(t, repo.ClearSession(ctx, "device-1"))

	loaded, err := repo.LoadSession(ctx, "device-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Clearing an absent session is a no-op, not an error.
	require.NoError(t, repo.ClearSession(ctx, "device-1"))
}

func TestCorruptedSnapshotYieldsEmptySession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "moltmatch.db")
	repo, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, "device-1", sampleState(t)))

	// Corrupt the stored JSON out-of-band.
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE sessions SET matches_json = '{{{not json', my_agent_json = 'also broken'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	loaded, err := repo.LoadSession(ctx, "device-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Nil(t, loaded.MyAgent)
	assert.Empty(t, loaded.Matches)
	assert.False(t, loaded.LiveMode)
}

func TestSessionsAreIsolatedPerDevice(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	stA := sampleState(t)
	stB := domain.NewSessionState()
	stB.MyAgent = &domain.Agent{Name: "OtherAgent"}

	require.NoError(t, repo.SaveSession(ctx, "device-a", stA))
	require.NoError(t, repo.SaveSession(ctx, "device-b", stB))
	require.NoError(t, repo.ClearSession(ctx, "device-a"))

	loaded, err := repo.LoadSession(ctx, "device-b")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "OtherAgent", loaded.MyAgent.Name)
}
