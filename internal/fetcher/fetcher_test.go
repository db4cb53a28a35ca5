package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		switch r.URL.Path {
		case "/views/text.html":
			w.Write([]byte("<div><= title =></div>"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(time.Second)

	body, err := f.Get(context.Background(), srv.URL+"/views/text.html")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "<div><= title =></div>" {
		t.Fatalf("body = %q", body)
	}

	if _, err := f.Get(context.Background(), srv.URL+"/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.Get(context.Background(), srv.URL+"/broken"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected server error, got %v", err)
	}
	if _, err := f.Get(context.Background(), "ftp://example.com/x"); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

func TestExtractText(t *testing.T) {
	page := `<html><head><title>T</title><style>p{}</style></head>
<body><nav>menu</nav><h1>Hello</h1><p>First   line.</p><script>x()</script><p>Second</p>
<img src="images/beach.jpg" alt="A quiet beach"><footer>made with devlog</footer></body></html>`
	if got := ExtractText(page); got != "Hello First line. Second A quiet beach" {
		t.Fatalf("ExtractText = %q", got)
	}
}

func TestIsURL(t *testing.T) {
	for s, want := range map[string]bool{
		"https://example.com": true,
		"www.example.com":     true,
		"entries/a.md":        false,
	} {
		if IsURL(s) != want {
			t.Errorf("IsURL(%q) = %v", s, !want)
		}
	}
}
