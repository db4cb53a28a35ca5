package logging

import (
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestNewProvider(t *testing.T) {
	p, err := New(Config{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger := p.Get("devlog.test")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	logger.Debug("provider initialised", "format", "console")
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNilProviderFallsBackToNoOp(t *testing.T) {
	var p *Provider
	logger := p.Get("devlog.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noop logger, got %T", logger)
	}
	logger.Info("dropped")
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"WARNING": glog.Warn,
		" info ":  glog.Info,
		"bogus":   "",
	}
	for in, want := range cases {
		if got := normalizeLevel(in); got != want {
			t.Errorf("normalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
