package moltbook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"agent":{"name":"MyAgent","karma":42,"is_claimed":true}}`))
	}))
	defer srv.Close()

	agent, err := NewClient(srv.URL, "molt_secret").Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer molt_secret", gotAuth)
	assert.Equal(t, "MyAgent", agent.Name)
	assert.Equal(t, 42, agent.Karma)
}

func TestNonSuccessStatusBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bad-key").Me(context.Background())
	require.Error(t, err)

	assert.True(t, IsAuthError(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid api key", apiErr.Message)
}

func TestServerErrorIsNotAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").Feed(context.Background(), 50)
	require.Error(t, err)
	assert.False(t, IsAuthError(err))
}

func TestTransportFailureIsError(t *testing.T) {
	// Point at a closed server; the failure must come back as an error,
	// never a panic.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, "key").Feed(context.Background(), 50)
	assert.Error(t, err)
	assert.False(t, IsAuthError(err))
}

func TestFeedDecodesPostsAndAuthors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "new", r.URL.Query().Get("sort"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"posts":[
			{"id":"p1","title":"gm","author":{"name":"A","karma":10}},
			{"id":"p2","title":"thoughts","author":{"name":"B","karma":20,"stats":{"posts":5,"comments":9}}}
		]}`))
	}))
	defer srv.Close()

	posts, err := NewClient(srv.URL, "key").Feed(context.Background(), 50)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, "A", posts[0].Author.Name)
	require.NotNil(t, posts[1].Author.Stats)
	assert.Equal(t, 5, posts[1].Author.Stats.Posts)
}

func TestMalformedBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"posts":[{`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").Feed(context.Background(), 50)
	assert.Error(t, err)
}

func TestProfileEscapesName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"success":true,"agent":{"name":"weird agent"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").Profile(context.Background(), "weird agent")
	require.NoError(t, err)
	assert.Equal(t, "/agents/profile/weird%20agent", gotPath)
}

func TestWireAgentToDomainDefaults(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	wire := &WireAgent{Name: "Minimal"}

	agent := wire.ToDomain(now)

	assert.Equal(t, "Minimal", agent.Name)
	assert.Equal(t, 0, agent.Karma)
	assert.Equal(t, now, agent.CreatedAt)
	assert.Nil(t, agent.Owner)

	created := now.Add(-24 * time.Hour)
	full := &WireAgent{
		Name:      "Full",
		Karma:     9,
		Stats:     &WireStats{Posts: 1, Comments: 2},
		CreatedAt: &created,
		Owner:     &WireOwner{XHandle: "@full", XVerified: true, XFollowerCount: 3},
	}
	agent = full.ToDomain(now)
	assert.Equal(t, created, agent.CreatedAt)
	require.NotNil(t, agent.Owner)
	assert.True(t, agent.Owner.XVerified)
}
