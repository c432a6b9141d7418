// Package api is the client for the remote egresados API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/egresados-admin/internal/schemas"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// TokenSource provides the bearer token of the current session.
// It is consulted at the start of every authenticated call.
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool, err error)
}

// Observer receives the duration and outcome of every API call.
type Observer interface {
	ObserveAPIRequest(endpoint string, outcome Kind, d time.Duration)
}

// Options configures the client.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Observer   Observer
	Schemas    *schemas.Validator
}

// Client performs requests against the egresados API on behalf of one session.
type Client struct {
	baseURL  string
	http     *http.Client
	session  TokenSource
	observer Observer
	schemas  *schemas.Validator
}

// NewClient creates a client for baseURL acting for session. A nil session is allowed
// for unauthenticated use (login only).
func NewClient(baseURL string, session TokenSource, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	v := opts.Schemas
	if v == nil {
		v = schemas.Default()
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		session:  session,
		observer: opts.Observer,
		schemas:  v,
	}
}

// request describes one API call.
type request struct {
	endpoint    string
	method      string
	path        string
	body        io.Reader
	contentType string
	auth        bool
}

// getRequest describes an authenticated GET without a body.
func getRequest(endpoint, path string) request {
	return request{endpoint: endpoint, method: http.MethodGet, path: path, auth: true}
}

func jsonRequest(endpoint, method, path string, payload any, auth bool) (request, error) {
	req := request{endpoint: endpoint, method: method, path: path, auth: auth}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return request{}, fmt.Errorf("%s: failed to encode request: %w", endpoint, err)
		}
		req.body = bytes.NewReader(b)
		req.contentType = "application/json"
	}
	return req, nil
}

// send executes req and returns the raw response body. It reads the token fresh
// when req.auth is set and fails with ErrUnauthenticated, without sending, when absent.
func (c *Client) send(ctx context.Context, req request) (status int, header http.Header, body []byte, err error) {
	url := c.baseURL + req.path

	var token string
	if req.auth {
		if c.session == nil {
			return 0, nil, nil, ErrUnauthenticated
		}
		tok, ok, err := c.session.Token(ctx)
		if err != nil {
			return 0, nil, nil, &TransportError{Op: req.method, URL: url, Message: "failed to read session", Cause: err}
		}
		if !ok {
			return 0, nil, nil, ErrUnauthenticated
		}
		token = tok
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, url, req.body)
	if err != nil {
		return 0, nil, nil, &TransportError{Op: req.method, URL: url, Message: "failed to create request", Cause: err}
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, nil, &TransportError{Op: req.method, URL: url, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, &TransportError{
			Op: req.method, URL: url, Message: "failed to read response body", StatusCode: resp.StatusCode, Cause: err,
		}
	}
	return resp.StatusCode, resp.Header, body, nil
}

// call sends req and decodes the envelope into T.
func call[T any](ctx context.Context, c *Client, req request) (T, error) {
	start := time.Now()
	data, err := doCall[T](ctx, c, req)
	c.observe(req.endpoint, err, time.Since(start))
	return data, err
}

func doCall[T any](ctx context.Context, c *Client, req request) (T, error) {
	var zero T

	status, _, body, err := c.send(ctx, req)
	if err != nil {
		return zero, err
	}

	result, err := decodeEnvelope[T](c.schemas, body)
	if err != nil {
		return zero, &TransportError{
			Op:         req.method,
			URL:        c.baseURL + req.path,
			Message:    fmt.Sprintf("unexpected response (HTTP %d)", status),
			StatusCode: status,
			Cause:      err,
		}
	}
	return result.Unwrap(req.endpoint)
}

func (c *Client) observe(endpoint string, err error, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAPIRequest(endpoint, Classify(err), d)
	}
}
