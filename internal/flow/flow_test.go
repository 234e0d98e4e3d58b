package flow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agent answers runs with RUNNING until doneAfter polls, then final.
func agent(t *testing.T, doneAfter int32, final string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/agents/agent-1/run", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, SkillComparison, body["skill"])
		_ = json.NewEncoder(w).Encode(Execution{ID: "exec-1"})
	})
	mux.HandleFunc("GET /v1/agents/agent-1/runs/exec-1", func(w http.ResponseWriter, r *http.Request) {
		status := StatusRunning
		if doneAfter >= 0 && polls.Add(1) > doneAfter {
			status = final
		}
		_ = json.NewEncoder(w).Encode(Execution{Status: status})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func testClient(url string) *Client {
	return New(Config{
		BaseURL:      url,
		APIKey:       "key",
		AgentID:      "agent-1",
		PollInterval: 10 * time.Millisecond,
		Timeout:      time.Second,
	}, zerolog.Nop())
}

func TestTriggerAndWait(t *testing.T) {
	srv, polls := agent(t, 2, StatusCompleted)
	c := testClient(srv.URL)

	ex, err := c.Trigger(context.Background(), SkillComparison, map[string]any{"comparisonId": "comp-1"})
	require.NoError(t, err)
	assert.Equal(t, "exec-1", ex.ID)
	assert.Equal(t, StatusRunning, ex.Status)

	done, err := c.WaitForCompletion(context.Background(), ex.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, "exec-1", done.ID)
	assert.EqualValues(t, 3, polls.Load())
}

func TestWaitForCompletion_Failed(t *testing.T) {
	srv, _ := agent(t, 0, StatusFailed)
	done, err := testClient(srv.URL).WaitForCompletion(context.Background(), "exec-1", 0)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
}

func TestWaitForCompletion_Timeout(t *testing.T) {
	srv, _ := agent(t, -1, "")
	start := time.Now()
	done, err := testClient(srv.URL).WaitForCompletion(context.Background(), "exec-1", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, done.Status)
	assert.Equal(t, "exec-1", done.ID)
	assert.NotEmpty(t, done.Error)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForCompletion_ContextCancel(t *testing.T) {
	srv, _ := agent(t, -1, "")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := testClient(srv.URL).WaitForCompletion(ctx, "exec-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotConfigured(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost"}, zerolog.Nop())
	assert.False(t, c.Enabled())

	_, err := c.Trigger(context.Background(), SkillComparison, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Status(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Trigger(context.Background(), SkillComparison, nil)
	assert.ErrorContains(t, err, "status 401")
}
