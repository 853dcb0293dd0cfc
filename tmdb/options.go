package tmdb

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = trimSlash(baseURL)
		}
	}
}

// WithImageBaseURL overrides the image base URL used for posters.
func WithImageBaseURL(imageBaseURL string) Option {
	return func(c *Client) {
		if imageBaseURL != "" {
			c.imageBaseURL = trimSlash(imageBaseURL)
		}
	}
}

// WithTimeout sets the HTTP client timeout. Zero keeps the platform default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithObserver sets the observer notified about favorite status changes.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}
