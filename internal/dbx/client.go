package dbx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
	"unicode/utf16"
)

// Default API endpoints. RPC calls carry JSON bodies against the api host;
// append calls carry raw bytes against the content host.
const (
	DefaultRPCURL     = "https://api.dropboxapi.com/2"
	DefaultContentURL = "https://content.dropboxapi.com/2"
)

// Retry and backoff constants.
const (
	maxRetries     = 5
	baseBackoff    = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
	userAgent      = "dropbox-batch-go/0.1"
)

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer per
// Go convention "accept interfaces, return structs"; auth.go provides the
// real implementations.
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the Dropbox API. It handles request
// construction, authentication, retry with exponential backoff for RPC
// calls, and error classification. Append calls are never retried: the
// payload reader is consumed on first send and the caller owns failure
// semantics for partially-written sessions.
type Client struct {
	rpcURL      string
	contentURL  string
	rpcHTTP     *http.Client
	contentHTTP *http.Client
	token       TokenSource
	logger      *slog.Logger

	// sleepFunc is called to wait between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Dropbox API client. rpcURL and contentURL are
// typically DefaultRPCURL and DefaultContentURL. rpcHTTP should carry a
// timeout; contentHTTP should not, because a chunk transfer on a slow
// link can legitimately take minutes.
func NewClient(rpcURL, contentURL string, rpcHTTP, contentHTTP *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if rpcHTTP == nil {
		rpcHTTP = http.DefaultClient
	}

	if contentHTTP == nil {
		contentHTTP = http.DefaultClient
	}

	return &Client{
		rpcURL:      rpcURL,
		contentURL:  contentURL,
		rpcHTTP:     rpcHTTP,
		contentHTTP: contentHTTP,
		token:       token,
		logger:      logger,
		sleepFunc:   timeSleep,
	}
}

// rpc executes a JSON-in, JSON-out request against the RPC endpoint with
// retry on network errors, 429, and 5xx. The argument is marshaled once
// and re-sent on each attempt. When result is non-nil the response body is
// decoded into it.
func (c *Client) rpc(ctx context.Context, path string, arg, result any) error {
	body, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("dbx: marshaling %s argument: %w", path, err)
	}

	url := c.rpcURL + path

	var attempt int
	for {
		resp, err := c.doOnce(ctx, url, "application/json", bytes.NewReader(body))
		if err != nil {
			// Context cancellation is not retryable.
			if ctx.Err() != nil {
				return fmt.Errorf("dbx: request canceled: %w", ctx.Err())
			}

			// Network errors are retryable.
			if attempt < maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return fmt.Errorf("dbx: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			return fmt.Errorf("dbx: %s failed after %d retries: %w", path, maxRetries, err)
		}

		if resp.StatusCode == http.StatusOK {
			err := decodeResult(resp, result)
			resp.Body.Close()

			if err != nil {
				return fmt.Errorf("dbx: decoding %s response: %w", path, err)
			}

			c.logger.Debug("rpc succeeded", slog.String("path", path))

			return nil
		}

		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		if isRetryable(resp.StatusCode) && attempt < maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return fmt.Errorf("dbx: request canceled: %w", err)
			}

			attempt++

			continue
		}

		return apiError(resp, errBody)
	}
}

// content executes a single request against the content endpoint. The API
// argument travels in the Dropbox-API-Arg header and the payload in the
// body. No retry: a consumed payload reader cannot safely be replayed.
func (c *Client) content(ctx context.Context, path string, arg any, payload io.Reader) error {
	argJSON, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("dbx: marshaling %s argument: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+path, payload)
	if err != nil {
		return fmt.Errorf("dbx: creating %s request: %w", path, err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return fmt.Errorf("dbx: obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", escapeNonASCII(argJSON))
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.contentHTTP.Do(req)
	if err != nil {
		c.logger.Error("content request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("dbx: %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		// Drain body to reuse the connection.
		if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
			return fmt.Errorf("dbx: draining %s response body: %w", path, drainErr)
		}

		return nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	return apiError(resp, errBody)
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	return c.rpcHTTP.Do(req)
}

// decodeResult decodes a JSON response body into result, tolerating empty
// and "null" bodies, which append-style calls return.
func decodeResult(resp *http.Response, result any) error {
	if result == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// apiError builds an APIError from an error response. The Dropbox error
// body carries a human-readable error_summary; fall back to the raw body
// when it cannot be parsed.
func apiError(resp *http.Response, body []byte) error {
	message := string(body)

	var summary struct {
		ErrorSummary string `json:"error_summary"`
	}

	if err := json.Unmarshal(body, &summary); err == nil && summary.ErrorSummary != "" {
		message = summary.ErrorSummary
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Dropbox-Request-Id"),
		Message:    message,
		Err:        classifyStatus(resp.StatusCode),
	}
}

// retryBackoff returns the backoff duration for a retryable response.
// For 429 responses with a Retry-After header, that value is used.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	// Apply ±25% jitter.
	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// escapeNonASCII renders JSON for the Dropbox-API-Arg header. HTTP header
// values must be ASCII, so runes outside 0x20..0x7E are \u-escaped.
func escapeNonASCII(raw []byte) string {
	var b bytes.Buffer

	for _, r := range string(raw) {
		switch {
		case r >= 0x20 && r <= 0x7e:
			b.WriteRune(r)
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, "\\u%04x\\u%04x", r1, r2)
		default:
			fmt.Fprintf(&b, "\\u%04x", r)
		}
	}

	return b.String()
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Client.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
