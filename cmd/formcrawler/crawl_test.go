package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/formcrawler/internal/config"
)

// testSite serves a small site:
//
//	/        form "login", links to /broken/ (optional), /sub/ and another host
//	/sub/    form "search"
//	/broken/ drops the connection
type testSite struct {
	*httptest.Server

	mu      sync.Mutex
	cookies []string
}

func newTestSite(t *testing.T, withBroken bool) *testSite {
	t.Helper()

	site := &testSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.cookies = append(site.cookies, r.Header.Get("Cookie"))
		site.mu.Unlock()

		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		broken := ""
		if withBroken {
			broken = `<a href="/broken/">broken</a>`
		}
		fmt.Fprintf(w, `<html><head><title>Home</title></head><body>
<form name="login" method="post"><input name="user"><input name="pass" type="password"></form>
%s<a href="/sub/">sub</a><a href="https://other.example/">elsewhere</a>
</body></html>`, broken)
	})
	mux.HandleFunc("/sub/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><form name="search"><input name="q"></form></body></html>`)
	})
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijacking not supported", http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			return
		}
		conn.Close()
	})

	site.Server = httptest.NewServer(mux)
	t.Cleanup(site.Close)
	return site
}

// cookiesSeen returns the Cookie header of every request received.
func (s *testSite) cookiesSeen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cookies...)
}

// emptyConfigFile writes an empty config file so tests never pick up a
// .formcrawler from the developer's home directory.
func emptyConfigFile(t *testing.T) string {
	t.Helper()
	return writeConfigFile(t, "")
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formcrawler.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// runCLI runs the CLI with an empty config file and colors disabled.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return runCLIWithConfig(t, emptyConfigFile(t), args...)
}

func runCLIWithConfig(t *testing.T, configPath string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--no-color", "-c", configPath}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCrawlReportsForms(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, false)
	start := site.URL + "/"

	t.Run("depth 1 visits only the start page", func(t *testing.T) {
		t.Parallel()
		code, _, events := runCLI(t, start)
		if code != 0 {
			t.Fatalf("expected exit code 0, got %d (stderr %q)", code, events)
		}
		want := fmt.Sprintf(`[+] %s - "login"`, start)
		if !strings.Contains(events, want) {
			t.Errorf("expected %q in output:\n%s", want, events)
		}
		if strings.Contains(events, `"search"`) {
			t.Errorf("did not expect /sub/ to be visited:\n%s", events)
		}
		if strings.Contains(events, "Crawling site:") {
			t.Errorf("verbosity 1 should hide crawled sites:\n%s", events)
		}
	})

	t.Run("depth 2 follows links below the page", func(t *testing.T) {
		t.Parallel()
		code, _, events := runCLI(t, "-d", "2", start)
		if code != 0 {
			t.Fatalf("expected exit code 0, got %d", code)
		}
		want := fmt.Sprintf(`[+] %ssub/ - "search"`, start)
		if !strings.Contains(events, want) {
			t.Errorf("expected %q in output:\n%s", want, events)
		}
	})

	t.Run("verbosity 2 shows crawled sites", func(t *testing.T) {
		t.Parallel()
		_, _, events := runCLI(t, "-v", "2", "-d", "2", start)
		if !strings.Contains(events, "[?] Crawling site: "+start) {
			t.Errorf("expected crawled site in output:\n%s", events)
		}
		if strings.Contains(events, "Found hyperlink") {
			t.Errorf("verbosity 2 should hide hyperlinks:\n%s", events)
		}
	})

	t.Run("verbosity 3 shows hyperlinks and domain skips", func(t *testing.T) {
		t.Parallel()
		_, _, events := runCLI(t, "-v", "3", "-d", "2", start)
		for _, want := range []string{
			"[i] Found hyperlink: " + start + "sub/",
			"[i] Found hyperlink: https://other.example/",
			"[i] Not same domain, skipping ...",
		} {
			if !strings.Contains(events, want) {
				t.Errorf("expected %q in output:\n%s", want, events)
			}
		}
	})

	t.Run("banner goes to stdout and events to stderr", func(t *testing.T) {
		t.Parallel()
		_, stdout, events := runCLI(t, start)
		if !strings.Contains(stdout, "Starting url:   "+start) {
			t.Errorf("expected start url in banner:\n%s", stdout)
		}
		if strings.Contains(stdout, "[+]") {
			t.Errorf("events must not be written to stdout:\n%s", stdout)
		}
		if strings.Contains(events, "Starting url:") {
			t.Errorf("banner must not be written to stderr:\n%s", events)
		}
		if !strings.Contains(events, "[+]") {
			t.Errorf("expected events on stderr:\n%s", events)
		}
	})
}

func TestCrawlFetchFailure(t *testing.T) {
	t.Parallel()

	t.Run("unreachable start page exits 1", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		target := srv.URL + "/"
		srv.Close()

		code, stdout, stderr := runCLI(t, target)
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
		if !strings.Contains(stdout, "Error: ") {
			t.Errorf("expected Error line on stdout:\n%s", stdout)
		}
		if stderr != "" {
			t.Errorf("expected nothing on stderr, got %q", stderr)
		}
	})

	t.Run("failing child aborts the crawl", func(t *testing.T) {
		t.Parallel()
		site := newTestSite(t, true)
		code, stdout, events := runCLI(t, "-d", "2", site.URL+"/")
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
		if !strings.Contains(stdout, "Error: ") {
			t.Errorf("expected Error line on stdout:\n%s", stdout)
		}
		if strings.Contains(events, `"search"`) {
			t.Errorf("siblings after the failure should not be visited:\n%s", events)
		}
	})

	t.Run("isolated failure lets siblings continue", func(t *testing.T) {
		t.Parallel()
		site := newTestSite(t, true)
		code, _, events := runCLI(t, "-d", "2", "-v", "2", "--isolate-failures", site.URL+"/")
		if code != 0 {
			t.Errorf("expected exit code 0, got %d", code)
		}
		if !strings.Contains(events, "[-] Error: ") {
			t.Errorf("expected isolated error in output:\n%s", events)
		}
		if !strings.Contains(events, `"search"`) {
			t.Errorf("expected sibling to be visited:\n%s", events)
		}
	})
}

func TestCrawlOutputFile(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, false)
	outPath := filepath.Join(t.TempDir(), "logs", "crawl.log")

	var stdout, stderr bytes.Buffer
	// --no-color is not given; the file must stay plain anyway.
	code := run([]string{"-c", emptyConfigFile(t), "-o", outPath, site.URL + "/"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr %q)", code, stderr.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "Output file:    "+outPath) {
		t.Errorf("expected banner in output file:\n%s", content)
	}
	if !strings.Contains(content, `[+] `+site.URL+`/ - "login"`) {
		t.Errorf("expected form event in output file:\n%s", content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Errorf("output file must not contain color codes:\n%q", content)
	}
}

func TestCrawlReportFile(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, false)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	code, _, stderr := runCLI(t, "-d", "2", "--report", "json", "--report-file", reportPath, site.URL+"/")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr %q)", code, stderr)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}

	var got struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Forms  []struct {
			Name string `json:"name"`
		} `json:"forms"`
		Summary struct {
			FormsFound int `json:"forms_found"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}

	if got.ID == "" {
		t.Error("expected a crawl id")
	}
	if got.Status != "complete" {
		t.Errorf("expected status complete, got %q", got.Status)
	}
	if got.Summary.FormsFound != 2 || len(got.Forms) != 2 {
		t.Fatalf("expected 2 forms, got %d (%d listed)", got.Summary.FormsFound, len(got.Forms))
	}
	if got.Forms[0].Name != "login" || got.Forms[1].Name != "search" {
		t.Errorf("unexpected form order: %+v", got.Forms)
	}
}

func TestCrawlConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("file settings apply", func(t *testing.T) {
		t.Parallel()
		site := newTestSite(t, false)
		cfgPath := writeConfigFile(t, "crawl:\n  depth: 2\n")

		_, _, events := runCLIWithConfig(t, cfgPath, site.URL+"/")
		if !strings.Contains(events, `"search"`) {
			t.Errorf("expected depth from config file to be used:\n%s", events)
		}
	})

	t.Run("flags override the file", func(t *testing.T) {
		t.Parallel()
		site := newTestSite(t, false)
		cfgPath := writeConfigFile(t, "crawl:\n  depth: 2\n")

		_, _, events := runCLIWithConfig(t, cfgPath, "-d", "1", site.URL+"/")
		if !strings.Contains(events, `"login"`) {
			t.Fatalf("expected the start page to be crawled:\n%s", events)
		}
		if strings.Contains(events, `"search"`) {
			t.Errorf("expected -d 1 to override the config file:\n%s", events)
		}
	})

	t.Run("site cookie is sent", func(t *testing.T) {
		t.Parallel()
		site := newTestSite(t, false)
		u, err := url.Parse(site.URL)
		if err != nil {
			t.Fatal(err)
		}
		cfgPath := writeConfigFile(t, fmt.Sprintf("sites:\n  %q:\n    cookie: \"session=abc123\"\n", u.Host))

		code, stdout, events := runCLIWithConfig(t, cfgPath, "-v", "3", site.URL+"/")
		if code != 0 {
			t.Fatalf("expected exit code 0, got %d", code)
		}
		cookies := site.cookiesSeen()
		if len(cookies) != 1 || cookies[0] != "session=abc123" {
			t.Errorf("expected cookie to be sent, got %v", cookies)
		}
		if !strings.Contains(events, "site settings applied") {
			t.Errorf("expected site settings event:\n%s", events)
		}
		if strings.Contains(stdout+events, "abc123") {
			t.Errorf("cookie value must be redacted in the output:\n%s", events)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		code, _, stderr := runCLIWithConfig(t, missing, "http://example.com/")
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
		if !strings.Contains(stderr, "configuration file not found") {
			t.Errorf("unexpected stderr: %q", stderr)
		}
	})
}

func TestCrawlInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"zero depth", []string{"-d", "0", "http://example.com/"}, "invalid depth"},
		{"verbosity out of range", []string{"-v", "4", "http://example.com/"}, "invalid verbosity"},
		{"relative url", []string{"example.com"}, "invalid target"},
		{"unknown report format", []string{"--report", "xml", "http://example.com/"}, "invalid report format"},
		{"conflicting domain flags", []string{"--same-domain", "--no-same-domain", "http://example.com/"}, "same-domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("expected %q in stderr, got %q", tt.wantErr, stderr)
			}
			if stdout != "" {
				t.Errorf("expected no crawl output, got %q", stdout)
			}
		})
	}
}

func TestBuildConfigSameDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"default", nil, true},
		{"no-same-domain", []string{"--no-same-domain"}, false},
		{"same-domain=false", []string{"--same-domain=false"}, false},
		{"same-domain", []string{"--same-domain"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := NewRootCmd()
			args := append([]string{"-c", emptyConfigFile(t)}, tt.args...)
			if err := cmd.ParseFlags(args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			cfg, err := buildConfig(cmd, []string{"http://example.com/"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.SameDomain != tt.want {
				t.Errorf("expected SameDomain %v, got %v", tt.want, cfg.SameDomain)
			}
		})
	}
}

func TestColorEnabled(t *testing.T) {
	t.Parallel()

	t.Run("non-terminal writer", func(t *testing.T) {
		t.Parallel()
		if colorEnabled(config.NewConfig(), &bytes.Buffer{}) {
			t.Error("expected colors off for a buffer")
		}
	})

	t.Run("regular file", func(t *testing.T) {
		t.Parallel()
		f, err := os.Create(filepath.Join(t.TempDir(), "events.log"))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if colorEnabled(config.NewConfig(), f) {
			t.Error("expected colors off for a regular file")
		}
	})

	t.Run("no-color flag", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.NoColor = true
		if colorEnabled(cfg, os.Stderr) {
			t.Error("expected --no-color to win")
		}
	})
}
