package main

import (
	"strings"
	"testing"
	"time"

	"github.com/nao1215/formcrawler/internal/config"
)

func TestRenderBanner(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

	t.Run("lists crawl settings", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Target = "https://example.com/"
		cfg.Depth = 3
		cfg.Verbosity = 2
		cfg.OutputFile = "crawl.log"

		banner := renderBanner(cfg, now)
		for _, want := range []string{
			"formcrawler " + getVersion(),
			"Fri Oct 16 09:30:00 2026",
			"Starting url:   https://example.com/",
			"Crawl depth:    3",
			"Verbosity:      2 (All crawled sites)",
			"Stay on domain: true",
			"Output file:    crawl.log",
		} {
			if !strings.Contains(banner, want) {
				t.Errorf("expected %q in banner:\n%s", want, banner)
			}
		}
	})

	t.Run("output file not specified", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Target = "https://example.com/"
		cfg.SameDomain = false

		banner := renderBanner(cfg, now)
		if !strings.Contains(banner, "Output file:    [not specified]") {
			t.Errorf("expected placeholder output file:\n%s", banner)
		}
		if !strings.Contains(banner, "Stay on domain: false") {
			t.Errorf("expected same-domain false:\n%s", banner)
		}
	})

	t.Run("starts and ends with a rule", func(t *testing.T) {
		t.Parallel()
		banner := strings.TrimSpace(renderBanner(config.NewConfig(), now))
		if !strings.HasPrefix(banner, bannerRule) || !strings.HasSuffix(banner, bannerRule) {
			t.Errorf("expected banner framed by rules:\n%s", banner)
		}
	})
}
