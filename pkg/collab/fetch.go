package collab

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/avast/retry-go/v4"
	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/pkg/errors"
)

const maxFetchBytes = 5 << 20

// Document is fetched content rendered as markdown.
type Document struct {
	URL         string
	ContentType string
	Markdown    string
}

// Fetcher retrieves a URL as markdown.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// HTTPFetcher fetches over HTTP(S), converting HTML to markdown.
type HTTPFetcher struct {
	client   *http.Client
	attempts uint
	delay    time.Duration
	domains  *DomainFilter
}

var _ Fetcher = (*HTTPFetcher)(nil)

// FetcherOption configures an HTTPFetcher
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithRetry sets the number of attempts and the initial backoff delay
func WithRetry(attempts uint, delay time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if attempts == 0 {
			attempts = 1
		}
		f.attempts = attempts
		f.delay = delay
	}
}

// WithDomainFilter restricts the hosts that may be fetched
func WithDomainFilter(df *DomainFilter) FetcherOption {
	return func(f *HTTPFetcher) {
		f.domains = df
	}
}

// NewHTTPFetcher creates a fetcher with sane defaults.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		attempts: 3,
		delay:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// retryableError marks transport failures and 5xx responses.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Fetch downloads rawURL, retrying transient failures.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.Errorf("unsupported URL scheme: %q", parsed.Scheme)
	}
	if allowed, _ := f.domains.IsAllowed(rawURL); !allowed {
		return nil, errors.Errorf("domain not allowed: %s", parsed.Hostname())
	}

	var body, contentType string
	err = retry.Do(
		func() error {
			var fetchErr error
			body, contentType, fetchErr = f.fetchOnce(ctx, rawURL)
			return fetchErr
		},
		retry.RetryIf(func(err error) bool {
			var re *retryableError
			return errors.As(err, &re)
		}),
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).WithField("url", rawURL).Debug("retrying fetch")
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", rawURL)
	}

	doc := &Document{URL: rawURL, ContentType: contentType, Markdown: body}
	if strings.Contains(contentType, "text/html") {
		doc.Markdown = convertHTMLToMarkdown(ctx, body)
	}
	return doc, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", &retryableError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", "", &retryableError{err: errors.Errorf("HTTP error: %s", resp.Status)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", errors.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", "", &retryableError{err: err}
	}

	return string(data), resp.Header.Get("Content-Type"), nil
}

// convertHTMLToMarkdown converts HTML content to Markdown.
func convertHTMLToMarkdown(ctx context.Context, htmlContent string) string {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(htmlContent)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to convert HTML to markdown, returning raw HTML")
		return htmlContent
	}
	return markdown
}
