// Package fetch retrieves remote documents from the government portals. The
// portals serve Latin-1 about as often as UTF-8, so every body goes through
// charset detection before being returned as a string.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vhrodrigues/notinha/internal/encoding"
)

// Error codes for programmatic branching by callers.
const (
	CodeTimeout = "fetch_timeout"
	CodeNetwork = "fetch_network"
)

const (
	// maxBodyBytes caps the decoded body; portal pages are tens of
	// kilobytes, anything larger is not an invoice.
	maxBodyBytes = 4 << 20

	defaultTimeout = 15 * time.Second

	// Some state portals refuse requests without a browser user agent.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Error is a typed fetch failure. URLs inside it are already scrubbed of
// query parameters.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a fetch timeout.
func IsTimeout(err error) bool {
	var e *Error

	return errors.As(err, &e) && e.Code == CodeTimeout
}

// Fetcher retrieves the text body of a remote document. Implemented by the
// HTTP client below and by test fakes.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// HTTPFetcher is the production Fetcher. One bounded-timeout attempt per
// call, no automatic retries.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (f *HTTPFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", &Error{Code: CodeNetwork, Message: "invalid URL", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Code: CodeNetwork, Message: "build request for " + scrub(u), Err: err}
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Code: CodeTimeout, Message: "fetch of " + scrub(u) + " timed out"}
		}

		return "", &Error{Code: CodeNetwork, Message: "fetch of " + scrub(u) + " failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Code:    CodeNetwork,
			Message: fmt.Sprintf("fetch of %s returned status %d", scrub(u), resp.StatusCode),
		}
	}

	decoded, err := encoding.NewUTF8Reader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{Code: CodeNetwork, Message: "decode body of " + scrub(u), Err: err}
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Code: CodeTimeout, Message: "fetch of " + scrub(u) + " timed out"}
		}

		return "", &Error{Code: CodeNetwork, Message: "read body of " + scrub(u), Err: err}
	}

	return string(body), nil
}

// scrub drops query and fragment; portal URLs carry the full access key and
// session tokens there.
func scrub(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}
