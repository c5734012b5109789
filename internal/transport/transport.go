// ABOUTME: Retry-wrapped HTTP client with a connectivity pre-check
// ABOUTME: Exponential backoff on transport failures only; HTTP statuses pass through

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxRetries is the retry budget after the first attempt.
	DefaultMaxRetries = 3
	// DefaultInitialBackoff doubles on each retry: 500ms, 1s, 2s.
	DefaultInitialBackoff = 500 * time.Millisecond

	defaultHTTPTimeout = 30 * time.Second
	maxResponseSize    = 10 * 1024 * 1024

	probeTimeout  = 2 * time.Second
	probeCacheTTL = 15 * time.Second
)

// Client wraps an HTTP client with connectivity checking and retries.
// Only transport-level failures are retried; 4xx/5xx responses are
// returned to the caller untouched.
type Client struct {
	baseURL        *url.URL
	httpc          *http.Client
	log            *logrus.Entry
	maxRetries     int
	initialBackoff time.Duration
	sleep          func(time.Duration)

	onlineFn func() bool

	probeMu    sync.Mutex
	probeValue bool
	probeAt    time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithRetries overrides the retry budget and initial backoff.
func WithRetries(maxRetries int, initialBackoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.initialBackoff = initialBackoff
	}
}

// WithOnlineCheck replaces the connectivity signal. The default probes
// the server's TCP endpoint and caches the answer briefly.
func WithOnlineCheck(fn func() bool) Option {
	return func(c *Client) { c.onlineFn = fn }
}

// WithLogger attaches a logger; a discarding logger is used otherwise.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL:        u,
		httpc:          &http.Client{Timeout: defaultHTTPTimeout},
		log:            logrus.NewEntry(discard),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		sleep:          time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Online reports the current connectivity signal.
func (c *Client) Online() bool {
	if c.onlineFn != nil {
		return c.onlineFn()
	}
	return c.probeOnline()
}

// probeOnline dials the server's host. The result is cached so bursts of
// requests don't each pay for a dial.
func (c *Client) probeOnline() bool {
	c.probeMu.Lock()
	defer c.probeMu.Unlock()

	if time.Since(c.probeAt) < probeCacheTTL {
		return c.probeValue
	}

	addr := c.baseURL.Host
	if !strings.Contains(addr, ":") {
		if c.baseURL.Scheme == "https" {
			addr += ":443"
		} else {
			addr += ":80"
		}
	}

	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	c.probeValue = err == nil
	c.probeAt = time.Now()
	if conn != nil {
		_ = conn.Close()
	}
	return c.probeValue
}

// request performs an HTTP call against the server. An offline signal
// fails immediately with ConnectivityError, before any attempt. A
// transport failure is retried up to the budget with doubling backoff
// and surfaces as TransportError once exhausted. Any HTTP response,
// error status included, is returned as-is.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header) (*http.Response, error) {
	op := method + " " + path
	if !c.Online() {
		return nil, &ConnectivityError{Op: op}
	}

	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	backoff := c.initialBackoff
	attempts := 0
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.WithFields(logrus.Fields{"op": op, "attempt": attempt, "backoff": backoff}).
				Debug("retrying after transport failure")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", op, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.httpc.Do(req)
		attempts++
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, &TransportError{Op: op, Attempts: attempts, Err: lastErr}
}

// requestJSON performs a call whose success body is JSON-decoded into
// out. Non-2xx statuses become ServerError; undecodable success bodies
// become MalformedDataError. A 304 response returns (true, nil) without
// touching out.
func (c *Client) requestJSON(ctx context.Context, method, path string, query url.Values, payload any, header http.Header, out any) (notModified bool, err error) {
	op := method + " " + path

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return false, fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	resp, err := c.request(ctx, method, path, query, body, header)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return true, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return false, &TransportError{Op: op, Attempts: 1, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &ServerError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return false, &MalformedDataError{Op: op, Err: err}
		}
	}
	return false, nil
}
