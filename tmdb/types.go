package tmdb

import (
	"encoding/json"
	"strings"
)

// Session holds the credentials produced by the authentication chain.
// Empty strings and a zero UserID mean the field has not been set yet.
type Session struct {
	RequestToken string `json:"request_token,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	UserID       int64  `json:"user_id,omitempty"`
}

// Clear resets every field
func (s *Session) Clear() {
	*s = Session{}
}

// LoggedIn reports whether the session can be used for account calls
func (s Session) LoggedIn() bool {
	return s.SessionID != "" && s.UserID != 0
}

// Credentials are the user's login details. They are never persisted.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that both username and password are present
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return &ValidationError{Reason: "username or password empty"}
	}
	return nil
}

// Movie is an entry of a results array
type Movie struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path,omitempty"`
}

// UnmarshalJSON accepts a null poster_path
func (m *Movie) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         int64   `json:"id"`
		Title      string  `json:"title"`
		PosterPath *string `json:"poster_path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.ID = raw.ID
	m.Title = raw.Title
	m.PosterPath = ""
	if raw.PosterPath != nil {
		m.PosterPath = *raw.PosterPath
	}
	return nil
}

// HasPoster reports whether the movie has a poster image
func (m Movie) HasPoster() bool {
	return m.PosterPath != ""
}

// IDSet returns the ids of movies as a set
func IDSet(movies []Movie) map[int64]struct{} {
	set := make(map[int64]struct{}, len(movies))
	for _, movie := range movies {
		set[movie.ID] = struct{}{}
	}
	return set
}

// MediaTypeMovie is the only media type this client marks as favorite
const MediaTypeMovie = "movie"

// FavoriteRequest is the body of the mark-as-favorite call
type FavoriteRequest struct {
	MediaType string `json:"media_type"`
	MediaID   int64  `json:"media_id"`
	Favorite  bool   `json:"favorite"`
}

// FavoriteResult is the outcome of a successful favorite toggle
type FavoriteResult struct {
	MovieID    int64
	Favorite   bool
	StatusCode int
	Message    string
}

// Favorite toggle status codes
const (
	StatusCodeSuccess = 1
	StatusCodeUpdated = 12
	StatusCodeDeleted = 13
)

// AuthState is a state of the authentication chain
type AuthState string

const (
	StateIdle                    AuthState = "idle"
	StateAwaitingRequestToken    AuthState = "awaiting_request_token"
	StateAwaitingLoginValidation AuthState = "awaiting_login_validation"
	StateAwaitingSessionID       AuthState = "awaiting_session_id"
	StateAwaitingUserID          AuthState = "awaiting_user_id"
	StateComplete                AuthState = "complete"
	StateFailed                  AuthState = "failed"
)

// Terminal reports whether no further transitions can happen from s
func (s AuthState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}
