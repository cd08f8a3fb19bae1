package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultDepth is the number of hyperlink hops followed beyond the start page.
	DefaultDepth = 1

	// DefaultVerbosity shows only found forms.
	DefaultVerbosity = VerbosityForms

	// DefaultSameDomain keeps recursion on the current page's authority.
	DefaultSameDomain = true

	// DefaultTimeout of zero means requests never time out.
	// Every fetch is a single blocking best-effort attempt.
	DefaultTimeout = time.Duration(0)

	// DefaultUserAgent identifies formcrawler in HTTP requests.
	DefaultUserAgent = "formcrawler/1.0 (+https://github.com/nao1215/formcrawler)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// AppName is the application name used for XDG directory paths.
	AppName = "formcrawler"
)

// Verbosity levels accepted by -v/--verbose.
const (
	// VerbosityForms reports only found forms.
	VerbosityForms = 1

	// VerbositySites adds crawled sites and "nothing found" events.
	VerbositySites = 2

	// VerbosityGranular adds hyperlinks, domain skips and debug detail.
	VerbosityGranular = 3
)

// ReportFormat selects the post-crawl summary format.
type ReportFormat string

const (
	// ReportNone disables the summary report.
	ReportNone ReportFormat = ""
	// ReportText is a human-readable summary.
	ReportText ReportFormat = "text"
	// ReportJSON is a machine-readable summary.
	ReportJSON ReportFormat = "json"
	// ReportMarkdown is a GitHub Flavored Markdown summary.
	ReportMarkdown ReportFormat = "markdown"
)

// Config holds all configuration options for a crawl.
// It is populated from CLI flags and the optional config file, then passed
// explicitly to the components that need it.
type Config struct {
	// Target is the start URL of the crawl.
	Target string

	// Depth is the user-facing crawl depth. Depth N means N levels of
	// hyperlink-following beyond the start page.
	Depth int

	// Verbosity selects which event tiers are surfaced (1-3).
	Verbosity int

	// SameDomain restricts recursion to links whose authority matches the
	// current page's authority.
	SameDomain bool

	// OutputFile duplicates console output (without colors) when set.
	OutputFile string

	// ConfigFilePath is the path to the YAML configuration file.
	// If empty, the default search locations are used.
	ConfigFilePath string

	// SiteConfigs holds per-host request settings loaded from the config file.
	SiteConfigs *File

	// IsolateFailures switches the fetch-error policy from aborting the whole
	// crawl to skipping only the failed branch.
	IsolateFailures bool

	// Timeout is the per-request timeout. Zero disables it.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// NoColor disables ANSI colors on the console.
	NoColor bool

	// ReportFormat selects the summary printed after the crawl.
	ReportFormat ReportFormat

	// ReportFile redirects the summary report to a file.
	ReportFile string

	// SaveToDB stores the crawl in the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Depth:       DefaultDepth,
		Verbosity:   DefaultVerbosity,
		SameDomain:  DefaultSameDomain,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for formcrawler.
// On Linux: ~/.local/share/formcrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for formcrawler.
// On Linux: ~/.config/formcrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// VerbosityDescription returns the banner text for a verbosity level.
func VerbosityDescription(verbosity int) string {
	switch verbosity {
	case VerbosityForms:
		return "Only found forms"
	case VerbositySites:
		return "All crawled sites"
	default:
		return "Granular logging"
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}

	u, err := url.Parse(c.Target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidTarget
	}

	if c.Depth < 1 {
		return ErrInvalidDepth
	}

	if c.Verbosity < VerbosityForms || c.Verbosity > VerbosityGranular {
		return ErrInvalidVerbosity
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.ReportFormat {
	case ReportNone, ReportText, ReportJSON, ReportMarkdown:
	default:
		return ErrInvalidReportFormat
	}

	if c.ReportFile != "" && c.ReportFormat == ReportNone {
		return ErrReportFileWithoutFormat
	}

	return nil
}
