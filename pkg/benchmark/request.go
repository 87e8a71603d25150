package benchmark

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bankbench/pkg/config"
	"github.com/tidwall/gjson"
	"golang.org/x/net/http2"
)

const userAgent = "bankbench/1.0"

// Outcome describes how a measured request ended
type Outcome struct {
	Status       int
	AccessDenied bool   // 401 from the gateway, tolerated
	Reason       string // "message" field of a 401 body
}

// Label returns a short key for outcome tallies
func (o Outcome) Label() string {
	if o.Reason != "" {
		return strconv.Itoa(o.Status) + " " + o.Reason
	}
	return strconv.Itoa(o.Status)
}

// StatusError is returned for responses that are neither 2xx nor 401
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// RequestError is the fatal error that aborts a load run
type RequestError struct {
	URL  string
	Body any
	Err  error
}

func (e *RequestError) Error() string {
	body, _ := json.Marshal(e.Body)
	return fmt.Sprintf("Request for %s with JSON %s failed: %v", e.URL, body, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Client sends JSON POST requests and times them
type Client struct {
	http *http.Client
}

// NewClient creates the HTTP client from the configuration settings
func NewClient(cfg *config.Config) *Client {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.Settings.Insecure,
	}

	if cfg.Settings.HTTP2 {
		return &Client{http: &http.Client{
			Timeout: cfg.Timeout(),
			Transport: &http2.Transport{
				TLSClientConfig: tlsConfig,
				AllowHTTP:       false, // Only allow HTTPS for HTTP/2
				ReadIdleTimeout: 30 * time.Second,
				PingTimeout:     15 * time.Second,
			},
		}}
	}

	// Requests are sequential, one connection is enough
	transport := &http.Transport{
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
		DisableKeepAlives:   cfg.IsKeepAliveDisabled(),
		TLSClientConfig:     tlsConfig,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{http: &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: transport,
	}}
}

// NewClientWith wraps an existing http.Client
func NewClientWith(c *http.Client) *Client {
	return &Client{http: c}
}

// Post sends body as JSON to url and returns the wall-clock time until the
// response body has been read. A 401 is not an error: the time still counts.
func (c *Client) Post(ctx context.Context, url string, body any) (time.Duration, Outcome, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, Outcome{}, fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return time.Since(start), Outcome{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, Outcome{Status: resp.StatusCode}, fmt.Errorf("failed to read response body: %w", err)
	}

	outcome := Outcome{Status: resp.StatusCode}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return elapsed, outcome, nil
	case resp.StatusCode == http.StatusUnauthorized:
		outcome.AccessDenied = true
		outcome.Reason = gjson.GetBytes(respBody, "message").String()
		return elapsed, outcome, nil
	default:
		return elapsed, outcome, &StatusError{URL: url, Status: resp.StatusCode, Body: truncate(string(respBody), 200)}
	}
}

// PostJSON sends body and fails on any non-2xx status, 401 included
func (c *Client) PostJSON(ctx context.Context, url string, body any) error {
	_, outcome, err := c.Post(ctx, url, body)
	if err != nil {
		return err
	}
	if outcome.AccessDenied {
		return &StatusError{URL: url, Status: outcome.Status, Body: outcome.Reason}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
