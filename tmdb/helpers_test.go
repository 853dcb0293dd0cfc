package tmdb

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/tmdbfav/tmdbtest"
)

type recordingObserver struct {
	mu        sync.Mutex
	progress  []AuthState
	failures  []string
	completed []Session
	known     map[int64]bool
	toggled   map[int64]bool
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		known:   make(map[int64]bool),
		toggled: make(map[int64]bool),
	}
}

func (o *recordingObserver) OnWorkflowProgress(state AuthState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, state)
}

func (o *recordingObserver) OnWorkflowFailed(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, reason)
}

func (o *recordingObserver) OnWorkflowComplete(session Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, session)
}

func (o *recordingObserver) OnFavoriteStatusKnown(movieID int64, favorite bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.known[movieID] = favorite
}

func (o *recordingObserver) OnFavoriteToggled(movieID int64, favorite bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.toggled[movieID] = favorite
}

func newTestServer(t *testing.T) *tmdbtest.Server {
	t.Helper()
	server := tmdbtest.NewServer("K", "u", "p")
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *tmdbtest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithBaseURL(server.BaseURL()),
		WithImageBaseURL(server.ImageBaseURL()),
	}, opts...)
	client, err := NewClient(server.APIKey, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
