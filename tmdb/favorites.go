package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// maxFavoritePages bounds pagination in case the server reports a bogus total_pages
const maxFavoritePages = 500

// FetchFavorites returns every movie in the account's favorites list
func (c *Client) FetchFavorites(ctx context.Context, session Session) ([]Movie, error) {
	if !session.LoggedIn() {
		return nil, ErrNoSession
	}

	path := fmt.Sprintf("/account/%d/favorite/movies", session.UserID)

	var favorites []Movie
	page := 1

	for {
		params := url.Values{"session_id": {session.SessionID}}
		if page > 1 {
			params.Set("page", strconv.Itoa(page))
		}

		payload, err := c.call(ctx, http.MethodGet, path, params, nil)
		if err != nil {
			return nil, err
		}

		var results []Movie
		if err := payload.Into("results", &results); err != nil {
			return nil, err
		}
		favorites = append(favorites, results...)

		c.logger.Debug().
			Int("page", page).
			Int("count", len(results)).
			Int("total", len(favorites)).
			Msg("Retrieved favorite movies")

		// Responses without pagination fields are a single page
		totalPages, err := payload.Int("total_pages")
		if err != nil || page >= totalPages || page >= maxFavoritePages {
			break
		}
		page++
	}

	return favorites, nil
}

// IsFavorite reports whether movieID is in the account's favorites list
func (c *Client) IsFavorite(ctx context.Context, session Session, movieID int64) (bool, error) {
	favorites, err := c.FetchFavorites(ctx, session)
	if err != nil {
		return false, err
	}

	_, favorite := IDSet(favorites)[movieID]
	c.observer.OnFavoriteStatusKnown(movieID, favorite)

	return favorite, nil
}

// ToggleFavorite marks or unmarks movieID as a favorite.
// The response must carry status_code 1 or 12 when marking and 13 when unmarking;
// any other code is an error even on a 2xx response.
func (c *Client) ToggleFavorite(ctx context.Context, session Session, movieID int64, favorite bool) (*FavoriteResult, error) {
	if !session.LoggedIn() {
		return nil, ErrNoSession
	}
	if movieID <= 0 {
		return nil, &ValidationError{Field: "media_id", Reason: "must be positive"}
	}

	path := fmt.Sprintf("/account/%d/favorite", session.UserID)
	params := url.Values{"session_id": {session.SessionID}}
	body := FavoriteRequest{
		MediaType: MediaTypeMovie,
		MediaID:   movieID,
		Favorite:  favorite,
	}

	// status_code is the success signal here, so the generic status_code check is skipped
	payload, err := c.callRaw(ctx, http.MethodPost, path, params, body)
	if err != nil {
		return nil, err
	}

	code, err := payload.StatusCode()
	if err != nil {
		return nil, err
	}

	result := &FavoriteResult{
		MovieID:    movieID,
		Favorite:   favorite,
		StatusCode: code,
		Message:    payload.StatusMessage(),
	}

	if !favoriteStatusAccepted(favorite, code) {
		return nil, &APIError{StatusCode: code, Message: result.Message}
	}

	c.logger.Debug().
		Int64("movie_id", movieID).
		Bool("favorite", favorite).
		Int("status_code", code).
		Msg("Updated favorite status")

	c.observer.OnFavoriteToggled(movieID, favorite)

	return result, nil
}

func favoriteStatusAccepted(favorite bool, code int) bool {
	if favorite {
		return code == StatusCodeSuccess || code == StatusCodeUpdated
	}
	return code == StatusCodeDeleted
}
