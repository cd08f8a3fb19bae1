package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/formcrawler/internal/config"
)

// bannerRule separates the banner sections.
const bannerRule = "============================="

// bannerDateFormat renders dates like "Fri Oct 16 09:30:00 2026".
const bannerDateFormat = "Mon Jan 02 15:04:05 2006"

// renderBanner returns the banner printed before a crawl.
func renderBanner(cfg *config.Config, now time.Time) string {
	outFile := cfg.OutputFile
	if outFile == "" {
		outFile = "[not specified]"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(bannerRule + "\n")
	fmt.Fprintf(&b, "formcrawler %s\n", getVersion())
	b.WriteString(bannerRule + "\n\n")
	b.WriteString(now.Format(bannerDateFormat) + "\n\n")
	fmt.Fprintf(&b, "Starting url:   %s\n", cfg.Target)
	fmt.Fprintf(&b, "Crawl depth:    %d\n", cfg.Depth)
	fmt.Fprintf(&b, "Verbosity:      %d (%s)\n", cfg.Verbosity, config.VerbosityDescription(cfg.Verbosity))
	fmt.Fprintf(&b, "Stay on domain: %t\n", cfg.SameDomain)
	fmt.Fprintf(&b, "Output file:    %s\n", outFile)
	b.WriteString("\n" + bannerRule + "\n")

	return b.String()
}
