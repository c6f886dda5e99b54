// Package fetch retrieves raw document bytes over HTTP.
//
// The fetcher is deliberately retry-free: transient failures are reported
// with enough structure for the ingest pipeline to decide whether a retry
// is worthwhile (network errors and 5xx yes, 4xx no).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// userAgent is a realistic browser identity. Several article sources reject
// requests with default Go client identification outright.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxBodySize caps how much of a response body is read (32 MiB). Large
// enough for any article or report PDF, small enough to bound memory.
const maxBodySize = 32 << 20

// Kind classifies a fetch failure.
type Kind int

const (
	// KindNetwork is a DNS or connection level failure.
	KindNetwork Kind = iota

	// KindTimeout means no response arrived within the deadline.
	KindTimeout

	// KindHTTPStatus is any non-2xx response.
	KindHTTPStatus
)

// Error is a typed fetch failure.
type Error struct {
	Kind   Kind
	URL    string
	Status int // set only for KindHTTPStatus
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timeout", e.URL)
	case KindHTTPStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: network errors,
// timeouts, and 5xx responses. Client errors (4xx) are permanent.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindHTTPStatus:
		return e.Status >= 500
	}
	return false
}

// IsTimeout reports whether err is a fetch timeout.
func IsTimeout(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindTimeout
}

// IsStatus reports whether err is an HTTP status failure with the given code.
func IsStatus(err error, status int) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindHTTPStatus && fe.Status == status
}

// Fetcher retrieves raw bytes for a URL with a per-request timeout.
// The zero value is not usable; use New.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a Fetcher. The timeout applies to the whole request including
// body read; callers choose it per content kind (articles vs PDFs).
func New(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch retrieves the raw bytes at url.
// Returns *Error classifying the failure; no retries happen at this layer.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, &Error{Kind: KindTimeout, URL: url, Err: err}
		}
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTPStatus, URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, &Error{Kind: KindTimeout, URL: url, Err: err}
		}
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}

	f.logger.Debug("fetched",
		"url", url,
		"bytes", len(body),
		"duration", time.Since(start))
	return body, nil
}

// isClientTimeout detects net/http client timeouts, which surface as
// url.Error with Timeout() true rather than context.DeadlineExceeded.
func isClientTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
