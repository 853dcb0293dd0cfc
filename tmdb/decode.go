package tmdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Reserved response keys signalling an API-level failure
const (
	keyStatusCode    = "status_code"
	keyStatusMessage = "status_message"
)

// Payload is a decoded JSON object with its values left raw until extracted
type Payload map[string]json.RawMessage

// Decode parses body as a JSON object
func Decode(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Err: errors.New("empty response body")}
	}
	if trimmed[0] != '{' {
		return nil, &DecodeError{Err: errors.New("response is not a JSON object")}
	}

	var payload Payload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if payload == nil {
		payload = Payload{}
	}

	return payload, nil
}

// Has reports whether key is present with a non-null value
func (p Payload) Has(key string) bool {
	raw, ok := p[key]
	return ok && !isNull(raw)
}

// APIError returns the error carried by the reserved status_code/status_message pair, or nil
func (p Payload) APIError() *APIError {
	if !p.Has(keyStatusCode) {
		return nil
	}

	apiErr := &APIError{}
	// A status_code that is not an integer still marks the response as an error
	_ = json.Unmarshal(p[keyStatusCode], &apiErr.StatusCode)
	if p.Has(keyStatusMessage) {
		_ = json.Unmarshal(p[keyStatusMessage], &apiErr.Message)
	}
	return apiErr
}

// StatusCode returns the status_code value
func (p Payload) StatusCode() (int, error) {
	return p.Int(keyStatusCode)
}

// StatusMessage returns the status_message value, or "" when absent
func (p Payload) StatusMessage() string {
	msg, _ := p.String(keyStatusMessage)
	return msg
}

// String extracts a string value
func (p Payload) String(key string) (string, error) {
	var s string
	if err := p.Into(key, &s); err != nil {
		return "", err
	}
	return s, nil
}

// NonEmptyString extracts a string value that must not be empty
func (p Payload) NonEmptyString(key string) (string, error) {
	s, err := p.String(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &ValidationError{Field: key, Reason: "empty value in response"}
	}
	return s, nil
}

// Bool extracts a boolean value
func (p Payload) Bool(key string) (bool, error) {
	var b bool
	if err := p.Into(key, &b); err != nil {
		return false, err
	}
	return b, nil
}

// Int64 extracts an integer value
func (p Payload) Int64(key string) (int64, error) {
	var n int64
	if err := p.Into(key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Int extracts an integer value
func (p Payload) Int(key string) (int, error) {
	var n int
	if err := p.Into(key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Into unmarshals the value of key into dst
func (p Payload) Into(key string, dst any) error {
	if !p.Has(key) {
		return &ValidationError{Field: key, Reason: "missing key in response"}
	}
	if err := json.Unmarshal(p[key], dst); err != nil {
		return &ValidationError{Field: key, Reason: fmt.Sprintf("unexpected value type: %v", err)}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
