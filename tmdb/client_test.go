package tmdb

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/tmdbfav/tmdbtest"
)

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name    string
		apiKey  string
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid key",
			apiKey: "test-key",
		},
		{
			name:    "missing API key",
			apiKey:  "",
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.apiKey, logger)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, DefaultBaseURL, client.baseURL)
			assert.Equal(t, DefaultImageBaseURL, client.imageBaseURL)
			assert.Equal(t, tt.apiKey, client.apiKey)
			assert.Zero(t, client.httpClient.Timeout)
		})
	}
}

func TestClientOptions(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("with base urls", func(t *testing.T) {
		client, err := NewClient("test-key", logger,
			WithBaseURL("http://localhost:8080/3/"),
			WithImageBaseURL("http://localhost:8080/t/p/"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/3", client.baseURL)
		assert.Equal(t, "http://localhost:8080/t/p", client.imageBaseURL)
	})

	t.Run("empty base url keeps default", func(t *testing.T) {
		client, err := NewClient("test-key", logger, WithBaseURL(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, client.baseURL)
	})

	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient("test-key", logger, WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("with custom http client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient("test-key", logger, WithHTTPClient(customClient))
		require.NoError(t, err)
		assert.Equal(t, customClient, client.httpClient)
	})

	t.Run("nil observer keeps nop", func(t *testing.T) {
		client, err := NewClient("test-key", logger, WithObserver(nil))
		require.NoError(t, err)
		assert.Equal(t, NopObserver{}, client.observer)
	})
}

func TestSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/3/account/42/favorite", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "S1", r.URL.Query().Get("session_id"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"media_type":"movie","media_id":550,"favorite":true}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status_code":1}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", zerolog.Nop(), WithBaseURL(server.URL+"/3"))
	require.NoError(t, err)

	query := url.Values{"session_id": {"S1"}}
	resp, err := client.Send(context.Background(), http.MethodPost, "/account/42/favorite", query,
		FavoriteRequest{MediaType: MediaTypeMovie, MediaID: 550, Favorite: true})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.Equal(t, `{"status_code":1}`, string(resp.Body))
	// The caller's query is left untouched
	assert.Equal(t, url.Values{"session_id": {"S1"}}, query)
}

func TestSendWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, int64(0), r.ContentLength)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient("test-key", zerolog.Nop(), WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), http.MethodGet, "/authentication/token/new", nil, nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Empty(t, resp.Body)
}

func TestResponseOK(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{199, false},
		{200, true},
		{201, true},
		{299, true},
		{304, false},
		{401, false},
		{500, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, (&Response{StatusCode: tt.status}).OK(), tt.status)
	}
}

func TestTransportErrorHidesAPIKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)

	client, err := NewClient("secret-key", logger, WithBaseURL(baseURL))
	require.NoError(t, err)

	_, err = client.Send(context.Background(), http.MethodGet, "/authentication/token/new", nil, nil)
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, KindTransport, Classify(err))
	assert.NotContains(t, err.Error(), "secret-key")
	assert.NotContains(t, Reason(err), "secret-key")
	assert.NotContains(t, logs.String(), "secret-key")
}

func TestCallClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
	}{
		{name: "success", status: http.StatusOK, body: `{"id":42}`, wantKind: KindNone},
		{name: "null status code is success", status: http.StatusOK, body: `{"status_code":null,"id":42}`, wantKind: KindNone},
		{name: "api error on 2xx", status: http.StatusOK, body: `{"status_code":34,"status_message":"missing"}`, wantKind: KindAPI},
		{name: "non-2xx body ignored", status: http.StatusNotFound, body: `{"id":42}`, wantKind: KindHTTPStatus},
		{name: "non-2xx with garbage", status: http.StatusBadGateway, body: `<html>`, wantKind: KindHTTPStatus},
		{name: "empty 2xx body", status: http.StatusOK, body: ``, wantKind: KindDecode},
		{name: "array body", status: http.StatusOK, body: `[]`, wantKind: KindDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)
			server.Handle(tmdbtest.RouteAccount, tmdbtest.Raw(tt.status, tt.body))
			client := newTestClient(t, server)

			_, err := client.call(context.Background(), http.MethodGet, "/account", nil, nil)
			assert.Equal(t, tt.wantKind, Classify(err))
		})
	}
}

func TestCallRejectsWrongAPIKey(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient("wrong", zerolog.Nop(), WithBaseURL(server.BaseURL()))
	require.NoError(t, err)

	_, err = client.call(context.Background(), http.MethodGet, "/authentication/token/new", nil, nil)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestFetchPoster(t *testing.T) {
	server := newTestServer(t)
	server.SetPoster("matrix.jpg", []byte("jpeg-bytes"))
	client := newTestClient(t, server)

	t.Run("found", func(t *testing.T) {
		data, err := client.FetchPoster(context.Background(), "/matrix.jpg")
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg-bytes"), data)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.FetchPoster(context.Background(), "/missing.jpg")
		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := client.FetchPoster(context.Background(), "/")
		assert.Equal(t, KindValidation, Classify(err))
	})

	assert.Equal(t, 2, server.Calls(tmdbtest.RoutePoster))
}
