package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public API endpoint
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultImageBaseURL is the public image endpoint
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
	// PosterSize is the poster width requested from the image endpoint
	PosterSize = "w342"

	paramAPIKey = "api_key"
)

// Response is a raw API response
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is in the 2xx range
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Client represents a movie database API client
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client
	observer     Observer
	logger       zerolog.Logger
}

// NewClient creates a new client for the given API key
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tmdb API key is required")
	}

	client := &Client{
		baseURL:      DefaultBaseURL,
		imageBaseURL: DefaultImageBaseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{},
		observer:     NopObserver{},
		logger:       logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Send performs a request and returns the raw response.
// The API key is always added to query. A non-nil body is sent as JSON.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	params := url.Values{}
	for key, values := range query {
		params[key] = append([]string(nil), values...)
	}
	params.Set(paramAPIKey, c.apiKey)

	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The query string carries credentials and is never logged
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Making TMDB API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: fmt.Sprintf("%s %s", method, path), Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response body", Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("TMDB API response")

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// call sends a request and classifies the result: non-2xx, decode failures and
// responses carrying status_code are returned as errors.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any) (Payload, error) {
	payload, err := c.callRaw(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	if apiErr := payload.APIError(); apiErr != nil {
		return nil, apiErr
	}

	return payload, nil
}

// callRaw is call without the status_code check
func (c *Client) callRaw(ctx context.Context, method, path string, query url.Values, body any) (Payload, error) {
	resp, err := c.Send(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 512)}
	}

	return Decode(resp.Body)
}

// FetchPoster downloads the poster image at posterPath
func (c *Client) FetchPoster(ctx context.Context, posterPath string) ([]byte, error) {
	posterPath = strings.TrimLeft(posterPath, "/")
	if posterPath == "" {
		return nil, &ValidationError{Field: "poster_path", Reason: "empty"}
	}

	requestURL := fmt.Sprintf("%s/%s/%s", c.imageBaseURL, PosterSize, posterPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", requestURL).Msg("Fetching poster")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET poster", Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read poster body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	return data, nil
}

// unwrapURLError strips the *url.Error wrapper, whose message includes the api key
func unwrapURLError(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return urlErr.Err
	}
	return err
}

func trimSlash(s string) string {
	return strings.TrimRight(s, "/")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
