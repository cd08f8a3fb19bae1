package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<form name="login"></form>`))
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithUserAgent("formcrawler-test/1.0"))
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if string(body) != `<form name="login"></form>` {
			t.Errorf("unexpected body %q", body)
		}
		if gotUA != "formcrawler-test/1.0" {
			t.Errorf("User-Agent = %q, want %q", gotUA, "formcrawler-test/1.0")
		}
	})

	t.Run("error status is not a failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<form name="search"></form>`))
		}))
		defer server.Close()

		body, err := NewHTTPFetcher().Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("404 should not be an error, got %v", err)
		}
		if !strings.Contains(string(body), "search") {
			t.Errorf("expected error page body, got %q", body)
		}
	})

	t.Run("decodes declared charset to utf-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			// "caf\xe9" is "café" in Latin-1.
			_, _ = w.Write([]byte("<form name=\"caf\xe9\"></form>"))
		}))
		defer server.Close()

		body, err := NewHTTPFetcher().Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(body), "café") {
			t.Errorf("expected decoded body, got %q", body)
		}
	})

	t.Run("request decorator can add headers", func(t *testing.T) {
		t.Parallel()

		var gotCookie string
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithRequestDecorator(func(r *http.Request) {
			r.Header.Set("Cookie", "session=abc")
		}))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotCookie != "session=abc" {
			t.Errorf("Cookie = %q, want %q", gotCookie, "session=abc")
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
		}))
		defer server.Close()

		body, err := NewHTTPFetcher(WithMaxBodySize(10)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(body) != 10 {
			t.Errorf("len(body) = %d, want 10", len(body))
		}
	})

	t.Run("malformed url fails", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHTTPFetcher().Fetch(context.Background(), "http://[::1"); err == nil {
			t.Error("expected error for malformed URL")
		}
	})

	t.Run("connection refused fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		if _, err := NewHTTPFetcher().Fetch(context.Background(), addr); err == nil {
			t.Error("expected error for closed server")
		}
	})

	t.Run("timeout fails", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		f := NewHTTPFetcher(WithTimeout(50 * time.Millisecond))
		if _, err := f.Fetch(context.Background(), server.URL); err == nil {
			t.Error("expected timeout error")
		}
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewHTTPFetcher().Fetch(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("bad escape is requested", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`<form name="odd"></form>`))
		}))
		defer server.Close()

		body, err := NewHTTPFetcher().Fetch(context.Background(), server.URL+"/a%zz")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotPath != "/a%zz" {
			t.Errorf("server saw path %q, want %q", gotPath, "/a%zz")
		}
		if !strings.Contains(string(body), "odd") {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("timeout leaves the given client untouched", func(t *testing.T) {
		t.Parallel()

		shared := &http.Client{Timeout: time.Minute}
		f := NewHTTPFetcher(WithHTTPClient(shared), WithTimeout(time.Second))

		if shared.Timeout != time.Minute {
			t.Errorf("shared client timeout changed to %v", shared.Timeout)
		}
		if f.client == shared {
			t.Error("fetcher should use a copy of the client")
		}
		if f.client.Timeout != time.Second {
			t.Errorf("fetcher timeout = %v, want %v", f.client.Timeout, time.Second)
		}
	})
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &FetchError{URL: "http://x.test/", Err: cause}

	if err.Error() != "connection refused" {
		t.Errorf("Error() = %q, want underlying message only", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("FetchError should unwrap to its cause")
	}

	empty := &FetchError{URL: "http://x.test/"}
	if empty.Error() != "failed to fetch http://x.test/" {
		t.Errorf("Error() = %q", empty.Error())
	}
}

func TestRequoteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"http://x.test/", "http://x.test/"},
		{"http://x.test/a%20b", "http://x.test/a%20b"},
		{"http://x.test/a%zz", "http://x.test/a%25zz"},
		{"http://x.test/100%", "http://x.test/100%25"},
		{"http://x.test/?q=5%2", "http://x.test/?q=5%252"},
		{"http://x.test/%E3%81%82%G1", "http://x.test/%E3%81%82%25G1"},
	}

	for _, tt := range tests {
		if got := requoteURL(tt.in); got != tt.want {
			t.Errorf("requoteURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
