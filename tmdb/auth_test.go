package tmdb

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/tmdbfav/tmdbtest"
)

func TestLoginScenario(t *testing.T) {
	server := newTestServer(t)
	server.Handle(tmdbtest.RouteRequestToken, tmdbtest.JSON(http.StatusOK, map[string]any{"request_token": "T1"}))
	server.Handle(tmdbtest.RouteValidateLogin, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "K", q.Get("api_key"))
		assert.Equal(t, "u", q.Get("username"))
		assert.Equal(t, "p", q.Get("password"))
		assert.Equal(t, "T1", q.Get("request_token"))
		tmdbtest.JSON(http.StatusOK, map[string]any{"success": true})(w, r)
	})
	server.Handle(tmdbtest.RouteNewSession, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "T1", r.URL.Query().Get("request_token"))
		tmdbtest.JSON(http.StatusOK, map[string]any{"success": true, "session_id": "S1"})(w, r)
	})
	server.Handle(tmdbtest.RouteAccount, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "S1", r.URL.Query().Get("session_id"))
		tmdbtest.JSON(http.StatusOK, map[string]any{"id": 42})(w, r)
	})

	observer := newRecordingObserver()
	auth := NewAuthenticator(newTestClient(t, server), observer, zerolog.Nop())

	var session Session
	err := auth.Login(context.Background(), Credentials{Username: "u", Password: "p"}, &session)
	require.NoError(t, err)

	assert.Equal(t, Session{RequestToken: "T1", SessionID: "S1", UserID: 42}, session)
	assert.Equal(t, StateComplete, auth.State())
	assert.NoError(t, auth.Err())
	assert.Equal(t, []AuthState{
		StateAwaitingRequestToken,
		StateAwaitingLoginValidation,
		StateAwaitingSessionID,
		StateAwaitingUserID,
		StateComplete,
	}, observer.progress)
	assert.Equal(t, []Session{session}, observer.completed)
	assert.Empty(t, observer.failures)
}

func TestLoginAgainstFakeServer(t *testing.T) {
	server := newTestServer(t)
	auth := NewAuthenticator(newTestClient(t, server), nil, zerolog.Nop())

	var session Session
	require.NoError(t, auth.Login(context.Background(), Credentials{Username: "u", Password: "p"}, &session))

	assert.NotEmpty(t, session.RequestToken)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, int64(42), session.UserID)
	assert.True(t, session.LoggedIn())

	for _, route := range []string{
		tmdbtest.RouteRequestToken,
		tmdbtest.RouteValidateLogin,
		tmdbtest.RouteNewSession,
		tmdbtest.RouteAccount,
	} {
		assert.Equal(t, 1, server.Calls(route), route)
	}
}

func TestLoginInvalidAPIKeyScenario(t *testing.T) {
	server := newTestServer(t)
	server.Handle(tmdbtest.RouteRequestToken, tmdbtest.JSON(http.StatusOK, map[string]any{
		"status_code":    7,
		"status_message": "invalid key",
	}))

	observer := newRecordingObserver()
	auth := NewAuthenticator(newTestClient(t, server), observer, zerolog.Nop())

	var session Session
	err := auth.Login(context.Background(), Credentials{Username: "u", Password: "p"}, &session)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 7, apiErr.StatusCode)
	assert.Equal(t, "invalid key", Reason(err))

	assert.Equal(t, StateFailed, auth.State())
	assert.Equal(t, []string{"invalid key"}, observer.failures)
	assert.Equal(t, 0, server.Calls(tmdbtest.RouteValidateLogin))
	assert.Equal(t, Session{}, session)
}

func TestLoginEmptyCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{name: "empty username", creds: Credentials{Username: "", Password: "p"}},
		{name: "empty password", creds: Credentials{Username: "u", Password: ""}},
		{name: "both empty", creds: Credentials{}},
		{name: "whitespace username", creds: Credentials{Username: "  ", Password: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)
			observer := newRecordingObserver()
			auth := NewAuthenticator(newTestClient(t, server), observer, zerolog.Nop())

			session := Session{SessionID: "previous", UserID: 7}
			err := auth.Login(context.Background(), tt.creds, &session)
			require.Error(t, err)

			assert.Equal(t, KindValidation, Classify(err))
			assert.Equal(t, StateIdle, auth.State())
			assert.Equal(t, 0, server.TotalCalls())
			assert.Equal(t, []string{"username or password empty"}, observer.failures)
			assert.Empty(t, observer.progress)
			// The chain never started, so the previous session is untouched
			assert.Equal(t, Session{SessionID: "previous", UserID: 7}, session)
		})
	}
}

func TestLoginStepFailures(t *testing.T) {
	failures := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind ErrorKind
	}{
		{
			name:     "transport",
			handler:  tmdbtest.Hijack(),
			wantKind: KindTransport,
		},
		{
			name:     "server error with valid json",
			handler:  tmdbtest.JSON(http.StatusInternalServerError, map[string]any{"request_token": "T", "success": true, "session_id": "S", "id": 1}),
			wantKind: KindHTTPStatus,
		},
		{
			name:     "redirect status",
			handler:  tmdbtest.JSON(http.StatusNotModified, nil),
			wantKind: KindHTTPStatus,
		},
		{
			name:     "malformed json",
			handler:  tmdbtest.Raw(http.StatusOK, `{"request_token": "T", `),
			wantKind: KindDecode,
		},
		{
			name:     "api error",
			handler:  tmdbtest.JSON(http.StatusOK, map[string]any{"status_code": 34, "status_message": "not found"}),
			wantKind: KindAPI,
		},
		{
			name:     "missing keys",
			handler:  tmdbtest.JSON(http.StatusOK, map[string]any{"unrelated": true}),
			wantKind: KindValidation,
		},
	}

	steps := []struct {
		route       string
		failedState AuthState
		want        func(s Session) Session
	}{
		{
			route:       tmdbtest.RouteRequestToken,
			failedState: StateAwaitingRequestToken,
			want:        func(s Session) Session { return Session{} },
		},
		{
			route:       tmdbtest.RouteValidateLogin,
			failedState: StateAwaitingLoginValidation,
			want:        func(s Session) Session { return Session{RequestToken: s.RequestToken} },
		},
		{
			route:       tmdbtest.RouteNewSession,
			failedState: StateAwaitingSessionID,
			want:        func(s Session) Session { return Session{RequestToken: s.RequestToken} },
		},
		{
			route:       tmdbtest.RouteAccount,
			failedState: StateAwaitingUserID,
			want:        func(s Session) Session { return Session{RequestToken: s.RequestToken, SessionID: s.SessionID} },
		},
	}

	routes := []string{
		tmdbtest.RouteRequestToken,
		tmdbtest.RouteValidateLogin,
		tmdbtest.RouteNewSession,
		tmdbtest.RouteAccount,
	}

	for _, step := range steps {
		for _, failure := range failures {
			t.Run(step.route+"/"+failure.name, func(t *testing.T) {
				server := newTestServer(t)
				server.Handle(step.route, failure.handler)

				observer := newRecordingObserver()
				auth := NewAuthenticator(newTestClient(t, server), observer, zerolog.Nop())

				session := Session{RequestToken: "stale", SessionID: "stale", UserID: 99}
				err := auth.Login(context.Background(), Credentials{Username: "u", Password: "p"}, &session)
				require.Error(t, err)

				assert.Equal(t, failure.wantKind, Classify(err))
				assert.Equal(t, StateFailed, auth.State())
				assert.Equal(t, err, auth.Err())
				assert.Equal(t, step.want(session), session)

				require.NotEmpty(t, observer.progress)
				assert.Equal(t, StateFailed, observer.progress[len(observer.progress)-1])
				assert.Contains(t, observer.progress, step.failedState)
				assert.Len(t, observer.failures, 1)
				assert.Empty(t, observer.completed)

				// Nothing after the failing step is called
				reached := false
				for _, route := range routes {
					if reached {
						assert.Equal(t, 0, server.Calls(route), route)
					}
					if route == step.route {
						reached = true
					}
				}
			})
		}
	}
}

func TestLoginRequiresSuccessTrue(t *testing.T) {
	for _, route := range []string{tmdbtest.RouteValidateLogin, tmdbtest.RouteNewSession} {
		t.Run(route, func(t *testing.T) {
			server := newTestServer(t)
			server.Handle(route, tmdbtest.JSON(http.StatusOK, map[string]any{"success": false, "session_id": "S"}))

			auth := NewAuthenticator(newTestClient(t, server), nil, zerolog.Nop())

			var session Session
			err := auth.Login(context.Background(), Credentials{Username: "u", Password: "p"}, &session)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "success", validationErr.Field)
			assert.Empty(t, session.SessionID)
			assert.Zero(t, session.UserID)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	server := newTestServer(t)
	auth := NewAuthenticator(newTestClient(t, server), nil, zerolog.Nop())

	var session Session
	err := auth.Login(context.Background(), Credentials{Username: "u", Password: "wrong"}, &session)
	require.Error(t, err)

	assert.Equal(t, KindHTTPStatus, Classify(err))
	assert.Equal(t, 0, server.Calls(tmdbtest.RouteNewSession))
	assert.NotEmpty(t, session.RequestToken)
	assert.Empty(t, session.SessionID)
}

func TestLoginRejectsConcurrentAttempt(t *testing.T) {
	server := newTestServer(t)
	release := make(chan struct{})
	server.Handle(tmdbtest.RouteRequestToken, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		tmdbtest.JSON(http.StatusOK, map[string]any{"request_token": "T1"})(w, r)
	})

	auth := NewAuthenticator(newTestClient(t, server), nil, zerolog.Nop())
	creds := Credentials{Username: "u", Password: "p"}

	var first Session
	done := make(chan error, 1)
	go func() {
		done <- auth.Login(context.Background(), creds, &first)
	}()

	require.Eventually(t, func() bool {
		return server.Calls(tmdbtest.RouteRequestToken) == 1
	}, 2*time.Second, 5*time.Millisecond)

	second := Session{SessionID: "untouched"}
	err := auth.Login(context.Background(), creds, &second)
	assert.ErrorIs(t, err, ErrLoginInProgress)
	assert.Equal(t, Session{SessionID: "untouched"}, second)

	close(release)

	select {
	case err := <-done:
		// The validate step rejects the overridden token, which is fine here
		var statusErr *HTTPStatusError
		assert.True(t, err == nil || errors.As(err, &statusErr))
	case <-time.After(5 * time.Second):
		t.Fatal("first login did not finish")
	}
	assert.Equal(t, "T1", first.RequestToken)

	// Once finished a new login may start
	server.Handle(tmdbtest.RouteRequestToken, nil)
	var third Session
	require.NoError(t, auth.Login(context.Background(), creds, &third))
	assert.True(t, third.LoggedIn())
}

func TestLoginCancellation(t *testing.T) {
	server := newTestServer(t)
	server.Handle(tmdbtest.RouteNewSession, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	observer := newRecordingObserver()
	auth := NewAuthenticator(newTestClient(t, server), observer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for server.Calls(tmdbtest.RouteNewSession) == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	var session Session
	err := auth.Login(ctx, Credentials{Username: "u", Password: "p"}, &session)
	require.Error(t, err)

	assert.Equal(t, KindTransport, Classify(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, auth.State())
	assert.Equal(t, []string{"request cancelled"}, observer.failures)
	assert.Empty(t, session.SessionID)
	assert.Equal(t, 0, server.Calls(tmdbtest.RouteAccount))
}
