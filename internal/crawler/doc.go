// Package crawler provides the traversal engine of formcrawler together with
// its two collaborators: an HTTP fetcher and an HTML extractor.
//
// # Architecture
//
// The Engine visits pages depth-first and recursively. For every page it
// reports the forms found, then (while depth remains) follows hyperlinks that
// pass two guards:
//
//   - same-domain scoping: the link's authority must equal the current page's
//     authority (when enabled)
//   - prefix containment: the link's URL string must start with the current
//     page's URL string
//
// Root-relative links ("/path") are resolved against the current page's
// scheme and authority, not the start URL's.
//
// There is no visited set. A URL reachable through several paths is fetched
// and reported every time; only the depth counter bounds cycles.
//
// # Events
//
// The engine has no return value other than an error. Everything it finds is
// emitted through a Sink, which has one method per severity tier:
//
//	Critical  form found
//	Error     nothing found, isolated fetch failure
//	Warn      crawling site
//	Info      hyperlink found, domain skip
//	Debug     fetch detail, anchors without href
//
// # Failure policy
//
// A fetch failure anywhere in the call tree is returned as a *FetchError and
// unwinds the whole traversal. WithIsolateFailures(true) confines a failure to
// its own branch instead.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(crawler.WithUserAgent("bot/1.0"))
//	engine := crawler.NewEngine(fetcher, sink, crawler.WithSameDomain(true))
//	err := engine.Crawl(ctx, "https://example.com/", 2)
package crawler
