package tmdb

import (
	"context"
	"net/url"
)

// Observer is the presentation layer notified by the workflows.
// Implementations that touch UI state should be wrapped so calls land on the UI context.
type Observer interface {
	OnWorkflowProgress(state AuthState)
	OnWorkflowFailed(reason string)
	OnWorkflowComplete(session Session)
	OnFavoriteStatusKnown(movieID int64, favorite bool)
	OnFavoriteToggled(movieID int64, favorite bool)
}

// NopObserver ignores every notification
type NopObserver struct{}

func (NopObserver) OnWorkflowProgress(AuthState) {}
func (NopObserver) OnWorkflowFailed(string) {}
func (NopObserver) OnWorkflowComplete(Session) {}
func (NopObserver) OnFavoriteStatusKnown(int64, bool) {}
func (NopObserver) OnFavoriteToggled(int64, bool) {}

// Sender issues raw requests against the API
type Sender interface {
	Send(ctx context.Context, method, path string, query url.Values, body any) (*Response, error)
}

// FavoritesAPI defines the favorites operations
type FavoritesAPI interface {
	FetchFavorites(ctx context.Context, session Session) ([]Movie, error)
	IsFavorite(ctx context.Context, session Session, movieID int64) (bool, error)
	ToggleFavorite(ctx context.Context, session Session, movieID int64, favorite bool) (*FavoriteResult, error)
}

// PosterFetcher downloads poster images
type PosterFetcher interface {
	FetchPoster(ctx context.Context, posterPath string) ([]byte, error)
}
