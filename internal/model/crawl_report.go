package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlStatus summarizes how a crawl ended.
type CrawlStatus string

const (
	// StatusRunning is the status of a crawl that has not finished.
	StatusRunning CrawlStatus = "running"

	// StatusComplete means the crawl ended by exhausting depth or links.
	StatusComplete CrawlStatus = "complete"

	// StatusAborted means a fetch failure unwound the whole traversal.
	StatusAborted CrawlStatus = "aborted"

	// StatusCancelled means the crawl was interrupted (e.g. Ctrl+C).
	StatusCancelled CrawlStatus = "cancelled"
)

// CrawlReport is the result of one crawl.
//
// All Add methods are safe to call on a nil *CrawlReport, so the engine can
// record unconditionally whether or not a report was requested.
type CrawlReport struct {
	// ID uniquely identifies the crawl (UUID).
	ID string `json:"id"`

	// StartURL is the URL the crawl started from.
	StartURL string `json:"start_url"`

	// Depth is the user-facing depth the crawl was started with.
	Depth int `json:"depth"`

	// SameDomain records whether same-domain scoping was enabled.
	SameDomain bool `json:"same_domain"`

	// IsolateFailures records whether failures were confined to their branch.
	IsolateFailures bool `json:"isolate_failures"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl ended. Zero while running.
	FinishedAt time.Time `json:"finished_at"`

	// Status is how the crawl ended.
	Status CrawlStatus `json:"status"`

	// Error is the message of the failure that ended the crawl, if any.
	Error string `json:"error,omitempty"`

	// Pages lists every fetched page in visit order. The same URL appears
	// once per visit.
	Pages []PageVisit `json:"pages"`

	// Forms lists every form found, in discovery order.
	Forms []FormFinding `json:"forms"`

	// Failures lists fetch failures that were isolated to their branch.
	Failures []Failure `json:"failures,omitempty"`

	// LinksFound counts hyperlinks reported (after resolution).
	LinksFound int `json:"links_found"`

	// LinksFollowed counts hyperlinks the engine recursed into.
	LinksFollowed int `json:"links_followed"`

	// DomainSkips counts hyperlinks rejected by same-domain scoping.
	DomainSkips int `json:"domain_skips"`
}

// PageVisit records one fetched page.
type PageVisit struct {
	// URL is the page URL exactly as visited.
	URL string `json:"url"`

	// Title is the page title, if any.
	Title string `json:"title,omitempty"`

	// RemainingDepth is the depth budget the page was visited with.
	RemainingDepth int `json:"remaining_depth"`

	// FormCount is the number of forms on the page.
	FormCount int `json:"form_count"`
}

// FormFinding records one form found on a page.
type FormFinding struct {
	// PageURL is the page the form was found on.
	PageURL string `json:"page_url"`

	// Name is the reported form name ("[no name specified]" when absent).
	Name string `json:"name"`

	// Named is false when the form had no name attribute.
	Named bool `json:"named"`

	// Method is the form method in upper case.
	Method string `json:"method"`

	// Action is the raw action attribute.
	Action string `json:"action,omitempty"`

	// Fields lists the names of the form's input fields.
	Fields []string `json:"fields,omitempty"`
}

// Failure records a fetch failure.
type Failure struct {
	// URL is the page that could not be fetched.
	URL string `json:"url"`

	// Message is the failure message.
	Message string `json:"message"`
}

// NewCrawlReport creates a running report for a crawl.
func NewCrawlReport(startURL string, depth int, sameDomain bool) *CrawlReport {
	return &CrawlReport{
		ID:         uuid.NewString(),
		StartURL:   startURL,
		Depth:      depth,
		SameDomain: sameDomain,
		StartedAt:  time.Now(),
		Status:     StatusRunning,
		Pages:      make([]PageVisit, 0),
		Forms:      make([]FormFinding, 0),
	}
}

// AddPage records a fetched page.
func (r *CrawlReport) AddPage(page PageVisit) {
	if r == nil {
		return
	}
	r.Pages = append(r.Pages, page)
}

// AddForm records a found form.
func (r *CrawlReport) AddForm(form FormFinding) {
	if r == nil {
		return
	}
	r.Forms = append(r.Forms, form)
}

// AddFailure records an isolated fetch failure.
func (r *CrawlReport) AddFailure(f Failure) {
	if r == nil {
		return
	}
	r.Failures = append(r.Failures, f)
}

// AddLink records a reported hyperlink and whether it was followed or
// rejected by same-domain scoping.
func (r *CrawlReport) AddLink(followed, domainSkipped bool) {
	if r == nil {
		return
	}
	r.LinksFound++
	if followed {
		r.LinksFollowed++
	}
	if domainSkipped {
		r.DomainSkips++
	}
}

// Finish marks the report as ended with the given status and error.
func (r *CrawlReport) Finish(status CrawlStatus, err error) {
	if r == nil {
		return
	}
	r.FinishedAt = time.Now()
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns how long the crawl ran. Zero while running.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// UniquePages returns the number of distinct URLs visited.
func (r *CrawlReport) UniquePages() int {
	seen := make(map[string]struct{}, len(r.Pages))
	for _, p := range r.Pages {
		seen[p.URL] = struct{}{}
	}
	return len(seen)
}

// UnnamedForms returns the number of forms without a name attribute.
func (r *CrawlReport) UnnamedForms() int {
	n := 0
	for _, f := range r.Forms {
		if !f.Named {
			n++
		}
	}
	return n
}

// FormsByPage groups form findings by page URL, preserving discovery order
// of the pages.
func (r *CrawlReport) FormsByPage() ([]string, map[string][]FormFinding) {
	order := make([]string, 0)
	byPage := make(map[string][]FormFinding)
	for _, f := range r.Forms {
		if _, ok := byPage[f.PageURL]; !ok {
			order = append(order, f.PageURL)
		}
		byPage[f.PageURL] = append(byPage[f.PageURL], f)
	}
	return order, byPage
}
