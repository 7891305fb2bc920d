package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// genericErrorMessage is the reason surfaced when the server gave us
// nothing usable: a network-level failure, an empty body, or a payload
// with no message field.
const genericErrorMessage = "Something went wrong. Please try again."

// APIError is the typed failure result of an adapter call. Status is zero
// for network-level failures (no response at all).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ValidationError is a client-side pre-flight rejection. It blocks the
// operation before any network call and is surfaced inline near the form,
// not through the store's Err field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Client is the HTTP adapter: it issues REST calls and converts every
// outcome into either a raw JSON payload or an *APIError.
//
// The session cookie (access_token) set by sign-in is kept in an in-memory
// cookie jar and sent automatically on subsequent calls, the way a browser
// would.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a Client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: creating cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// envelope is the part of every response the adapter inspects before
// handing the payload to a store. Success is a pointer so "field absent"
// (bare records, bare sequences) is distinguishable from success:false.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Call issues a single-attempt request and returns the raw JSON payload.
//
// Rules, in order:
//   - body (when non-nil) is serialized as JSON with the content-type header
//   - a transport failure (no response) yields a generic *APIError
//   - a non-2xx status, or a payload carrying success:false, yields an
//     *APIError with the payload's message (generic fallback when absent)
//
// No retries — the caller decides whether to re-issue.
func (c *Client) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return nil, &APIError{Message: genericErrorMessage}
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, &APIError{Message: genericErrorMessage}
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Network-level failure — no response to take a reason from.
		return nil, &APIError{Message: genericErrorMessage}
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		raw = nil
	}

	var env envelope
	if raw != nil {
		// A non-object payload (e.g. a bare array) simply leaves env zero.
		_ = json.Unmarshal(raw, &env)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || (env.Success != nil && !*env.Success) {
		message := env.Message
		if message == "" {
			message = genericErrorMessage
		}
		return nil, &APIError{Status: resp.StatusCode, Message: message}
	}

	return raw, nil
}

// reasonOf extracts the human-readable reason from an operation failure.
func reasonOf(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Message
	}
	return genericErrorMessage
}
