package tmdb

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Authentication endpoints
const (
	pathRequestToken      = "/authentication/token/new"
	pathValidateWithLogin = "/authentication/token/validate_with_login"
	pathNewSession        = "/authentication/session/new"
	pathAccount           = "/account"
)

// Authenticator runs the request token -> login -> session -> account chain.
// Only one login may run at a time.
type Authenticator struct {
	client   *Client
	observer Observer
	logger   zerolog.Logger

	inFlight atomic.Bool
	mu       sync.Mutex
	state    AuthState
	lastErr  error
}

// NewAuthenticator creates a new Authenticator using client for requests
func NewAuthenticator(client *Client, observer Observer, logger zerolog.Logger) *Authenticator {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Authenticator{
		client:   client,
		observer: observer,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the current state of the chain
func (a *Authenticator) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Err returns the error that moved the chain to StateFailed, if any
func (a *Authenticator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Login authenticates creds and stores the request token, session id and user id in session.
// Empty credentials are rejected before any request is made. Fields belonging to stages
// that were not reached are left unset.
func (a *Authenticator) Login(ctx context.Context, creds Credentials, session *Session) error {
	if !a.inFlight.CompareAndSwap(false, true) {
		return ErrLoginInProgress
	}
	defer a.inFlight.Store(false)

	if err := creds.Validate(); err != nil {
		a.observer.OnWorkflowFailed(Reason(err))
		return err
	}

	session.Clear()
	a.setState(StateIdle, nil)

	logger := a.logger.With().
		Str("attempt", uuid.NewString()).
		Str("username", creds.Username).
		Logger()

	logger.Info().Msg("Starting login")

	a.advance(StateAwaitingRequestToken)
	token, err := a.requestToken(ctx)
	if err != nil {
		return a.fail(logger, err)
	}
	session.RequestToken = token

	a.advance(StateAwaitingLoginValidation)
	if err := a.validateWithLogin(ctx, creds, session.RequestToken); err != nil {
		return a.fail(logger, err)
	}

	a.advance(StateAwaitingSessionID)
	sessionID, err := a.newSession(ctx, session.RequestToken)
	if err != nil {
		return a.fail(logger, err)
	}
	session.SessionID = sessionID

	a.advance(StateAwaitingUserID)
	userID, err := a.accountID(ctx, session.SessionID)
	if err != nil {
		return a.fail(logger, err)
	}
	session.UserID = userID

	a.advance(StateComplete)
	logger.Info().Int64("user_id", userID).Msg("Login complete")
	a.observer.OnWorkflowComplete(*session)

	return nil
}

// requestToken creates a new request token
func (a *Authenticator) requestToken(ctx context.Context) (string, error) {
	payload, err := a.client.call(ctx, http.MethodGet, pathRequestToken, nil, nil)
	if err != nil {
		return "", err
	}
	return payload.NonEmptyString("request_token")
}

// validateWithLogin asks the API to authorize token with the user's credentials
func (a *Authenticator) validateWithLogin(ctx context.Context, creds Credentials, token string) error {
	params := url.Values{
		"username":      {creds.Username},
		"password":      {creds.Password},
		"request_token": {token},
	}

	payload, err := a.client.call(ctx, http.MethodGet, pathValidateWithLogin, params, nil)
	if err != nil {
		return err
	}
	return requireSuccess(payload)
}

// newSession exchanges an authorized request token for a session id
func (a *Authenticator) newSession(ctx context.Context, token string) (string, error) {
	params := url.Values{"request_token": {token}}

	payload, err := a.client.call(ctx, http.MethodGet, pathNewSession, params, nil)
	if err != nil {
		return "", err
	}
	if err := requireSuccess(payload); err != nil {
		return "", err
	}
	return payload.NonEmptyString("session_id")
}

// accountID looks up the account id for a session
func (a *Authenticator) accountID(ctx context.Context, sessionID string) (int64, error) {
	params := url.Values{"session_id": {sessionID}}

	payload, err := a.client.call(ctx, http.MethodGet, pathAccount, params, nil)
	if err != nil {
		return 0, err
	}

	id, err := payload.Int64("id")
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, &ValidationError{Field: "id", Reason: "empty value in response"}
	}
	return id, nil
}

func requireSuccess(payload Payload) error {
	success, err := payload.Bool("success")
	if err != nil {
		return err
	}
	if !success {
		return &ValidationError{Field: "success", Reason: "request was not successful"}
	}
	return nil
}

func (a *Authenticator) advance(state AuthState) {
	a.setState(state, nil)
	a.observer.OnWorkflowProgress(state)
}

func (a *Authenticator) fail(logger zerolog.Logger, err error) error {
	from := a.State()
	a.setState(StateFailed, err)

	logger.Error().
		Err(err).
		Str("state", string(from)).
		Str("kind", Classify(err).String()).
		Msg("Login failed")

	a.observer.OnWorkflowProgress(StateFailed)
	a.observer.OnWorkflowFailed(Reason(err))
	return err
}

func (a *Authenticator) setState(state AuthState, err error) {
	a.mu.Lock()
	a.state = state
	a.lastErr = err
	a.mu.Unlock()
}
