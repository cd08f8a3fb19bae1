// Package report renders a finished crawl as a summary report.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for sharing and documentation
//
// The event stream printed during a crawl is not a report; it is produced by
// internal/log. Reports are written once, after the crawl ends.
package report
