package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
)

// DefaultTimeout bounds a request when no option overrides it.
const DefaultTimeout = 30 * time.Second

// Client is a thin HTTP client for the todo REST API.
// It handles Bearer token authentication, JSON marshaling and
// normalization of failures into the errs taxonomy.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new API client. The baseURL is the API root
// (e.g., https://todo.example.com/api); paths like /todo are appended.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes a single API call.
type request struct {
	op          string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string

	// fallback is the message used when a failure body has none.
	fallback string

	// clientErrors reports 4xx responses (other than 401/403) as
	// ValidationError instead of ServerError.
	clientErrors bool
}

// response is a fully-read HTTP response.
type response struct {
	status int
	body   []byte
}

// jsonBody marshals v into a request body.
func jsonBody(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// send builds and executes the request and reads the whole body. It only
// fails on transport errors; status handling is left to the caller.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	url := c.baseURL + r.path

	req, err := http.NewRequestWithContext(ctx, r.method, url, r.body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).
			Str("request_id", requestID).
			Str("method", r.method).
			Str("path", r.path).
			Msg("request failed")
		return nil, &errs.NetworkError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.NetworkError{
			Op:  r.op,
			Err: fmt.Errorf("reading response body: %w", err),
		}
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	return &response{status: resp.StatusCode, body: body}, nil
}

// do executes the request, converts non-2xx responses into typed errors
// and decodes a 2xx body into result (if non-nil).
func (c *Client) do(ctx context.Context, r request, result interface{}) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}

	if err := statusError(r, resp); err != nil {
		return err
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.status == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		if result != nil && resp.status != http.StatusNoContent {
			return &errs.MalformedResponseError{
				Op:         r.op,
				StatusCode: resp.status,
				Err:        errors.New("empty response body"),
			}
		}
		return nil
	}

	if err := json.Unmarshal(resp.body, result); err != nil {
		return &errs.MalformedResponseError{
			Op:         r.op,
			StatusCode: resp.status,
			Body:       truncate(string(resp.body), 512),
			Err:        err,
		}
	}

	return nil
}

// statusError maps a non-2xx response onto the error taxonomy. The
// body's "message" field, when present, becomes the user-visible text.
func statusError(r request, resp *response) error {
	if resp.status >= 200 && resp.status < 300 {
		return nil
	}

	msg := messageFromBody(resp.body)

	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		return &errs.AuthError{StatusCode: resp.status, Message: msg}
	}

	if msg == "" {
		msg = r.fallback
	}

	if r.clientErrors && resp.status >= 400 && resp.status < 500 {
		return &errs.ValidationError{Message: msg}
	}

	return &errs.ServerError{Op: r.op, StatusCode: resp.status, Message: msg}
}

// messageFromBody extracts {"message": "..."} from an error body.
func messageFromBody(body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return strings.TrimSpace(e.Message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
