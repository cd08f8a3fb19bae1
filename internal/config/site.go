package config

import (
	"net"
	"strings"
	"time"
)

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// CrawlSettings are crawl options that may be set in the config file.
// CLI flags that are explicitly given always take precedence.
type CrawlSettings struct {
	// Depth is the default crawl depth. Zero keeps the built-in default.
	Depth int `yaml:"depth,omitempty"`

	// Verbose is the default verbosity. Zero keeps the built-in default.
	Verbose int `yaml:"verbose,omitempty"`

	// SameDomain overrides the same-domain default when set.
	SameDomain *bool `yaml:"sameDomain,omitempty"`

	// IsolateFailures enables per-branch failure isolation.
	IsolateFailures bool `yaml:"isolateFailures,omitempty"`

	// Timeout is the per-request timeout, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent replaces the default User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxBodySize limits response bodies in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`
}

// File represents the structure of the .formcrawler configuration file.
type File struct {
	// Crawl holds defaults for crawl options.
	Crawl CrawlSettings `yaml:"crawl,omitempty"`

	// Sites maps hosts (e.g. "example.com" or "example.com:8080") to their
	// request settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the request settings for a host.
// Site-specific values override defaults; headers are merged.
// Host matching is case-insensitive.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Cookie:    cf.Defaults.Cookie,
		UserAgent: cf.Defaults.UserAgent,
	}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		for k, v := range cf.Sites {
			if strings.EqualFold(k, host) {
				siteConfig, ok = v, true
				break
			}
		}
	}
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}

	return result
}

// SiteConfigForHost resolves a request host. An entry for "host:port" wins
// over an entry for the bare host name.
func (cf *File) SiteConfigForHost(hostport string) SiteConfig {
	if cf.hasSite(hostport) {
		return cf.GetSiteConfig(hostport)
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return cf.GetSiteConfig(host)
	}
	return cf.GetSiteConfig(hostport)
}

// hasSite reports whether Sites has an entry for host, ignoring case.
func (cf *File) hasSite(host string) bool {
	for k := range cf.Sites {
		if strings.EqualFold(k, host) {
			return true
		}
	}
	return false
}

// Apply copies crawl settings from the file into cfg.
// It is called before CLI flags are applied so that flags win.
func (cf *File) Apply(cfg *Config) {
	s := cf.Crawl
	if s.Depth != 0 {
		cfg.Depth = s.Depth
	}
	if s.Verbose != 0 {
		cfg.Verbosity = s.Verbose
	}
	if s.SameDomain != nil {
		cfg.SameDomain = *s.SameDomain
	}
	if s.IsolateFailures {
		cfg.IsolateFailures = true
	}
	if s.Timeout != 0 {
		cfg.Timeout = s.Timeout
	}
	if s.UserAgent != "" {
		cfg.UserAgent = s.UserAgent
	}
	if s.MaxBodySize != 0 {
		cfg.MaxBodySize = s.MaxBodySize
	}
}
