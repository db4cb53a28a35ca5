package convert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGitHubPostsMarkdown(t *testing.T) {
	var got markdownRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/markdown" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte("<h1>Hello</h1>\n"))
	}))
	defer srv.Close()

	html, err := NewGitHub(srv.URL, time.Second).Convert(context.Background(), "# Hello")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if html != "<h1>Hello</h1>\n" {
		t.Fatalf("html = %q", html)
	}
	if got.Text != "# Hello" || got.Mode != "markdown" {
		t.Fatalf("request body = %+v", got)
	}
}

func TestGitHubErrorStatusIsConversionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGitHub(srv.URL, time.Second).Convert(context.Background(), "text")
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	var convErr *Error
	if !errors.As(err, &convErr) || convErr.Status != http.StatusForbidden {
		t.Fatalf("expected status 403 in %#v", err)
	}
}

func TestGitHubUnreachableIsConversionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewGitHub(addr, time.Second).Convert(context.Background(), "text")
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

func TestGoldmarkConvert(t *testing.T) {
	html, err := NewGoldmark().Convert(context.Background(), "# Title\n\n[date]: # (2016-12-15)\n\nSome *text*.\n")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(html, `<h1 id="title">Title</h1>`) {
		t.Errorf("missing heading in %q", html)
	}
	if !strings.Contains(html, "<em>text</em>") {
		t.Errorf("missing emphasis in %q", html)
	}
	if strings.Contains(html, "2016-12-15") {
		t.Errorf("metadata link definition leaked into %q", html)
	}
}

func TestGoldmarkHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewGoldmark().Convert(ctx, "x"); !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}
