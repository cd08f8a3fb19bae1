package crawler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// Fetcher retrieves the body of a URL.
// Any failure (network, malformed URL, unreadable body) is returned as an error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) ([]byte, error)

// Fetch calls f(ctx, rawURL).
func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return f(ctx, rawURL)
}

// HTTPFetcher fetches pages with a single blocking GET per URL.
// There are no retries. HTTP error statuses are not failures: the body of an
// error page is returned and parsed like any other page.
type HTTPFetcher struct {
	// client performs the requests.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	// Zero or negative means no limit.
	maxBodySize int64

	// decorate is called on every request before it is sent.
	decorate func(*http.Request)

	// logger receives fetch detail at debug level.
	logger *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
// The client is copied first, so a shared client such as
// http.DefaultClient is left untouched.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		client := *f.client
		client.Timeout = d
		f.client = &client
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithRequestDecorator registers a function that may add headers or cookies
// to each request. It runs after the User-Agent is set, so it can override it.
func WithRequestDecorator(fn func(*http.Request)) FetcherOption {
	return func(f *HTTPFetcher) {
		f.decorate = fn
	}
}

// WithFetchLogger sets the logger that receives fetch detail.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher. Options are applied in order, so
// WithHTTPClient should come before WithTimeout.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs a GET request and returns the body decoded to UTF-8.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requoteURL(rawURL), nil)
	if err != nil {
		return nil, err
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if f.decorate != nil {
		f.decorate(req)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var bodyReader io.Reader = resp.Body
	if f.maxBodySize > 0 {
		bodyReader = io.LimitReader(resp.Body, f.maxBodySize)
	}
	raw, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	body, encoding, err := decodeUTF8(raw, contentType)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(raw))),
		"charset", encoding,
	)

	return body, nil
}

// requoteURL replaces every "%" that does not start a valid escape with
// "%25", so hrefs like "/a%zz" are requested instead of failing to parse.
// Valid escapes are left alone.
func requoteURL(rawURL string) string {
	if !strings.Contains(rawURL, "%") {
		return rawURL
	}

	var b strings.Builder
	b.Grow(len(rawURL) + 4)
	for i := 0; i < len(rawURL); i++ {
		c := rawURL[i]
		if c == '%' && (i+2 >= len(rawURL) || !isHex(rawURL[i+1]) || !isHex(rawURL[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// decodeUTF8 converts raw to UTF-8 using the charset declared in the
// Content-Type header, a BOM, a <meta> tag, or sniffing, in that order.
func decodeUTF8(raw []byte, contentType string) ([]byte, string, error) {
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" {
		return raw, name, nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return nil, name, err
	}
	return decoded, name, nil
}
