// Package tmdbtest provides an in-process fake of the movie database API for tests.
package tmdbtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Route names accepted by Handle and Calls
const (
	RouteRequestToken  = "request_token"
	RouteValidateLogin = "validate_with_login"
	RouteNewSession    = "new_session"
	RouteAccount       = "account"
	RouteFavorites     = "favorite_movies"
	RouteMarkFavorite  = "mark_favorite"
	RoutePoster        = "poster"
)

// Movie is a favorites entry served by the fake
type Movie struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	PosterPath *string `json:"poster_path"`
}

// FavoriteBody is a decoded mark-as-favorite request body
type FavoriteBody struct {
	MediaType string `json:"media_type"`
	MediaID   int64  `json:"media_id"`
	Favorite  bool   `json:"favorite"`
}

// Server is a fake movie database. The zero value is not usable; use NewServer.
type Server struct {
	*httptest.Server

	APIKey    string
	Username  string
	Password  string
	AccountID int64
	PageSize  int

	mu        sync.Mutex
	calls     map[string]int
	overrides map[string]http.HandlerFunc
	tokens    map[string]bool
	sessions  map[string]bool
	favorites map[int64]Movie
	bodies    []FavoriteBody
	posters   map[string][]byte
}

// NewServer starts a fake accepting apiKey and the given credentials
func NewServer(apiKey, username, password string) *Server {
	s := &Server{
		APIKey:    apiKey,
		Username:  username,
		Password:  password,
		AccountID: 42,
		PageSize:  20,
		calls:     make(map[string]int),
		overrides: make(map[string]http.HandlerFunc),
		tokens:    make(map[string]bool),
		sessions:  make(map[string]bool),
		favorites: make(map[int64]Movie),
		posters:   make(map[string][]byte),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/3").Subrouter()
	api.Use(s.requireAPIKey)

	api.HandleFunc("/authentication/token/new", s.route(RouteRequestToken, s.requestToken)).Methods(http.MethodGet)
	api.HandleFunc("/authentication/token/validate_with_login", s.route(RouteValidateLogin, s.validateWithLogin)).Methods(http.MethodGet)
	api.HandleFunc("/authentication/session/new", s.route(RouteNewSession, s.newSession)).Methods(http.MethodGet)
	api.HandleFunc("/account", s.route(RouteAccount, s.account)).Methods(http.MethodGet)
	api.HandleFunc("/account/{user_id:[0-9]+}/favorite/movies", s.route(RouteFavorites, s.favoriteMovies)).Methods(http.MethodGet)
	api.HandleFunc("/account/{user_id:[0-9]+}/favorite", s.route(RouteMarkFavorite, s.markFavorite)).Methods(http.MethodPost)

	r.HandleFunc("/t/p/w342/{poster}", s.route(RoutePoster, s.poster)).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API base URL of the fake
func (s *Server) BaseURL() string {
	return s.URL + "/3"
}

// ImageBaseURL is the image base URL of the fake
func (s *Server) ImageBaseURL() string {
	return s.URL + "/t/p"
}

// Handle replaces the handler of a route; nil restores the default. Calls are still counted.
func (s *Server) Handle(route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[route] = h
}

// Calls returns how many requests reached route
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests that reached any route
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// AddFavorite puts a movie in the favorites list
func (s *Server) AddFavorite(id int64, title, posterPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	movie := Movie{ID: id, Title: title}
	if posterPath != "" {
		movie.PosterPath = &posterPath
	}
	s.favorites[id] = movie
}

// IsFavorite reports whether id is in the favorites list
func (s *Server) IsFavorite(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favorites[id]
	return ok
}

// FavoriteBodies returns every mark-as-favorite body received
func (s *Server) FavoriteBodies() []FavoriteBody {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FavoriteBody(nil), s.bodies...)
}

// SetPoster serves data for the poster file name
func (s *Server) SetPoster(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posters[name] = data
}

// JSON returns a handler writing v with the given status
func JSON(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, v)
	}
}

// Raw returns a handler writing body as is
func Raw(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// Hijack returns a handler that drops the connection without a response
func Hijack() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	}
}

func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[name]++
		override := s.overrides[name]
		s.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		h(w, r)
	}
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != s.APIKey {
			writeError(w, http.StatusUnauthorized, 7, "Invalid API key: You must be granted a valid key.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestToken(w http.ResponseWriter, r *http.Request) {
	token := uuid.NewString()

	s.mu.Lock()
	s.tokens[token] = false
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"expires_at":    "2030-01-01 00:00:00 UTC",
		"request_token": token,
	})
}

func (s *Server) validateWithLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("request_token")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; !ok {
		writeError(w, http.StatusUnauthorized, 33, "Invalid request token: The request token is either expired or invalid.")
		return
	}
	if q.Get("username") != s.Username || q.Get("password") != s.Password {
		writeError(w, http.StatusUnauthorized, 30, "Invalid username and/or password: You did not provide a valid login.")
		return
	}

	s.tokens[token] = true
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"request_token": token,
	})
}

func (s *Server) newSession(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("request_token")

	s.mu.Lock()
	defer s.mu.Unlock()

	if validated := s.tokens[token]; !validated {
		writeError(w, http.StatusUnauthorized, 17, "Session denied.")
		return
	}

	delete(s.tokens, token)
	sessionID := uuid.NewString()
	s.sessions[sessionID] = true

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"session_id": sessionID,
	})
}

func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	if !s.validSession(r) {
		writeError(w, http.StatusUnauthorized, 3, "Authentication failed: You do not have permissions to access the service.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       s.AccountID,
		"username": s.Username,
	})
}

func (s *Server) favoriteMovies(w http.ResponseWriter, r *http.Request) {
	if !s.validAccount(r) {
		writeError(w, http.StatusUnauthorized, 3, "Authentication failed: You do not have permissions to access the service.")
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	s.mu.Lock()
	movies := make([]Movie, 0, len(s.favorites))
	for _, movie := range s.favorites {
		movies = append(movies, movie)
	}
	s.mu.Unlock()

	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	totalPages := (len(movies) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := min((page-1)*pageSize, len(movies))
	end := min(start+pageSize, len(movies))

	writeJSON(w, http.StatusOK, map[string]any{
		"page":          page,
		"results":       movies[start:end],
		"total_pages":   totalPages,
		"total_results": len(movies),
	})
}

func (s *Server) markFavorite(w http.ResponseWriter, r *http.Request) {
	if !s.validAccount(r) {
		writeError(w, http.StatusUnauthorized, 3, "Authentication failed: You do not have permissions to access the service.")
		return
	}

	var body FavoriteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, 5, "Invalid parameters: Your request parameters are incorrect.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bodies = append(s.bodies, body)

	if body.MediaType != "movie" || body.MediaID <= 0 {
		writeError(w, http.StatusBadRequest, 5, "Invalid parameters: Your request parameters are incorrect.")
		return
	}

	if !body.Favorite {
		delete(s.favorites, body.MediaID)
		writeError(w, http.StatusOK, 13, "The item/record was deleted successfully.")
		return
	}

	if _, ok := s.favorites[body.MediaID]; ok {
		writeError(w, http.StatusOK, 12, "The item/record was updated successfully.")
		return
	}

	s.favorites[body.MediaID] = Movie{ID: body.MediaID, Title: "Movie " + strconv.FormatInt(body.MediaID, 10)}
	writeError(w, http.StatusCreated, 1, "Success.")
}

func (s *Server) poster(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["poster"]

	s.mu.Lock()
	data, ok := s.posters[name]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func (s *Server) validSession(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[r.URL.Query().Get("session_id")]
}

func (s *Server) validAccount(r *http.Request) bool {
	if !s.validSession(r) {
		return false
	}
	userID, err := strconv.ParseInt(mux.Vars(r)["user_id"], 10, 64)
	return err == nil && userID == s.AccountID
}

// AddSession registers a session id as valid, skipping the login chain
func (s *Server) AddSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = true
}

func writeError(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]any{
		"success":        status >= 200 && status <= 299,
		"status_code":    code,
		"status_message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
