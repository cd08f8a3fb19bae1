package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/formcrawler/internal/model"
)

// Sink receives crawl events. It has one method per severity tier.
// *log.Logger from internal/log satisfies it.
type Sink interface {
	Critical(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Extractor turns a fetched page into forms and links.
type Extractor interface {
	Parse(content io.Reader) (*ParseResult, error)
}

// Engine is the depth-bounded recursive traversal engine.
//
// The engine carries no per-crawl state besides an optional report
// accumulator. Remaining depth and the same-domain flag travel as parameters
// of Visit, and root-relative links resolve against the origin of the page
// being visited, not the start page.
type Engine struct {
	fetcher         Fetcher
	extractor       Extractor
	sink            Sink
	sameDomain      bool
	isolateFailures bool
	report          *model.CrawlReport
}

// Option configures an Engine.
type Option func(*Engine)

// WithSameDomain sets the same-domain flag used by Crawl.
func WithSameDomain(enabled bool) Option {
	return func(e *Engine) {
		e.sameDomain = enabled
	}
}

// WithIsolateFailures confines fetch failures to their own branch.
// A failing child is reported at error tier and its siblings continue.
// A failure of the page passed to Visit by the caller is still returned.
func WithIsolateFailures(enabled bool) Option {
	return func(e *Engine) {
		e.isolateFailures = enabled
	}
}

// WithReport records everything the engine finds into r.
func WithReport(r *model.CrawlReport) Option {
	return func(e *Engine) {
		e.report = r
	}
}

// WithExtractor replaces the default HTML extractor.
func WithExtractor(x Extractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// NewEngine creates an engine. Same-domain scoping is on by default.
func NewEngine(fetcher Fetcher, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		fetcher:    fetcher,
		extractor:  NewParser(),
		sink:       sink,
		sameDomain: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Crawl visits startURL and follows links up to depth hops.
// depth counts pages including the start page, so depth 1 visits only the
// start page and depth 2 also visits the pages it links to.
func (e *Engine) Crawl(ctx context.Context, startURL string, depth int) error {
	return e.Visit(ctx, startURL, depth-1, e.sameDomain)
}

// Visit fetches rawURL, reports its forms and, while remaining is positive,
// recurses into the links that pass the scoping guards.
//
// The returned error is a *FetchError when a page could not be fetched, or the
// context error when ctx is done.
func (e *Engine) Visit(ctx context.Context, rawURL string, remaining int, sameDomainOnly bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.sink.Warn("Crawling site: " + rawURL)

	body, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return &FetchError{URL: rawURL, Err: err}
	}

	page, err := e.extractor.Parse(bytes.NewReader(body))
	if err != nil {
		return &FetchError{URL: rawURL, Err: err}
	}

	e.report.AddPage(model.PageVisit{
		URL:            rawURL,
		Title:          page.Title,
		RemainingDepth: remaining,
		FormCount:      len(page.Forms),
	})
	e.reportForms(rawURL, page.Forms)

	if remaining <= 0 {
		return nil
	}

	pageAuthority := authority(rawURL)
	pageOrigin := origin(rawURL)

	for _, link := range page.Links {
		if link.Href == nil {
			e.sink.Debug("Anchor without href, skipping ...", "text", link.Text)
			continue
		}

		href := *link.Href
		if strings.HasPrefix(href, "/") {
			href = pageOrigin + href
		}
		e.sink.Info("Found hyperlink: " + href)

		if sameDomainOnly && authority(href) != pageAuthority {
			e.sink.Info("Not same domain, skipping ...")
			e.report.AddLink(false, true)
			continue
		}

		if !strings.HasPrefix(href, rawURL) {
			e.report.AddLink(false, false)
			continue
		}

		e.report.AddLink(true, false)
		if err := e.Visit(ctx, href, remaining-1, sameDomainOnly); err != nil {
			if !e.isolate(ctx, err) {
				return err
			}
			e.sink.Error("Error: " + err.Error())
			e.report.AddFailure(model.Failure{URL: href, Message: err.Error()})
		}
	}

	return nil
}

// isolate reports whether a child error may be confined to its branch.
// Cancellation always unwinds.
func (e *Engine) isolate(ctx context.Context, err error) bool {
	if !e.isolateFailures || ctx.Err() != nil {
		return false
	}
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// reportForms emits one critical event per form, or "Nothing found" when the
// page has none.
func (e *Engine) reportForms(pageURL string, forms []Form) {
	if len(forms) == 0 {
		e.sink.Error("Nothing found ...")
		return
	}

	for _, f := range forms {
		name := f.DisplayName()
		e.sink.Critical(fmt.Sprintf("%s - \"%s\"", pageURL, name))

		fields := make([]string, 0, len(f.Fields))
		for _, field := range f.Fields {
			fields = append(fields, field.Name)
		}
		e.report.AddForm(model.FormFinding{
			PageURL: pageURL,
			Name:    name,
			Named:   f.Name != nil,
			Method:  f.Method,
			Action:  f.Action,
			Fields:  fields,
		})
	}
}

// authority returns the userinfo@host:port part of rawURL: the text between
// "scheme://" and the next "/", "?" or "#". It does not validate the URL, so
// a bad escape in the path does not hide the host. URLs without "://" have
// no authority.
func authority(rawURL string) string {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok || !validScheme(scheme) {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// origin returns scheme://authority of rawURL.
func origin(rawURL string) string {
	scheme, _, ok := strings.Cut(rawURL, "://")
	if !ok || !validScheme(scheme) {
		return ""
	}
	return scheme + "://" + authority(rawURL)
}

// validScheme reports whether s is a URL scheme: a letter followed by
// letters, digits, "+", "-" or ".".
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
