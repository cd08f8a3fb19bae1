package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() for programmatic handling while still getting a readable message.
var (
	// ErrNoTarget is returned when no start URL is given.
	ErrNoTarget = errors.New("no target specified: provide a start URL")

	// ErrInvalidTarget is returned when the start URL is not an absolute http(s) URL.
	ErrInvalidTarget = errors.New("invalid target: start URL must be an absolute http or https URL")

	// ErrInvalidDepth is returned when the crawl depth is not a positive integer.
	ErrInvalidDepth = errors.New("invalid depth: must be a positive integer")

	// ErrInvalidVerbosity is returned when the verbosity is outside 1-3.
	ErrInvalidVerbosity = errors.New("invalid verbosity: must be 1, 2 or 3")

	// ErrInvalidTimeout is returned when the request timeout is negative.
	// Zero means no timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReportFormat is returned when --report names an unknown format.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, json or markdown")

	// ErrReportFileWithoutFormat is returned when --report-file is given without --report.
	ErrReportFileWithoutFormat = errors.New("--report-file requires --report")
)
