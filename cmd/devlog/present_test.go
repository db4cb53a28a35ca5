package main

import (
	"strings"
	"testing"

	"github.com/philackm/devlog/internal/config"
	"github.com/philackm/devlog/internal/domain"
)

func testEntry(name string, pairs ...string) *domain.Entry {
	meta := domain.Meta{}
	for i := 0; i+1 < len(pairs); i += 2 {
		meta.Add(pairs[i], pairs[i+1])
	}
	return &domain.Entry{FileName: name, Meta: meta}
}

func TestDisplayTitle(t *testing.T) {
	if got := displayTitle(testEntry("x", "title", "Custom")); got != "Custom" {
		t.Errorf("title = %q", got)
	}
	if got := displayTitle(testEntry("my-first_post")); got != "My First Post" {
		t.Errorf("title from file name = %q", got)
	}
}

func TestFilterEntries(t *testing.T) {
	entries := []*domain.Entry{
		testEntry("graphs", "title", "Drawing graphs", "tag", "Swift"),
		testEntry("server", "title", "A tiny web server", "tag", "Go"),
		testEntry("notes", "title", "Misc notes"),
	}

	got := filterEntries(entries, "web")
	if len(got) != 1 || got[0].FileName != "server" {
		t.Fatalf("filter web = %v", got)
	}
	if got := filterEntries(entries, "swift"); len(got) != 1 || got[0].FileName != "graphs" {
		t.Fatalf("filter by tag = %v", got)
	}
	if got := filterEntries(entries, "zzz"); len(got) != 0 {
		t.Fatalf("expected no match, got %v", got)
	}
}

func TestRenderEntryListShowsUndated(t *testing.T) {
	out := renderEntryList([]*domain.Entry{
		testEntry("a", "date", "2016-12-15", "tag", "Go"),
		testEntry("b"),
	})
	for _, want := range []string{"2 entries", "December 2016", "undated", "Go"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestRenderRun(t *testing.T) {
	out := renderRun(&domain.Run{
		ID: "0123456789",
		Results: []domain.EntryResult{
			{Path: "/e/a.md", FileName: "a", Status: domain.StatusBuilt},
			{Path: "/e/broken.md", Status: domain.StatusSkipped, Error: "stat: no such file"},
		},
	})
	if !strings.Contains(out, "/e/broken.md: stat: no such file") {
		t.Fatalf("out = %q", out)
	}
	if shortID("0123456789") != "01234567" || shortID("abc") != "abc" {
		t.Fatal("shortID")
	}
}

func TestRenderEntryHistory(t *testing.T) {
	out := renderEntryHistory(testEntry("graphs", "title", "Drawing graphs"), []domain.EntryResult{
		{Path: "/e/graphs.md", Status: domain.StatusFailed, Error: "conversion failed", Hash: "00ff"},
		{Path: "/e/graphs.md", Status: domain.StatusBuilt, Hash: "00aa"},
	})
	for _, want := range []string{"Drawing graphs", "conversion failed", "00aa"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestDefaultsLocation(t *testing.T) {
	cfg := config.Default("/tmp/devlog")
	cfg.DefaultsURL = "https://example.com/defaults"
	if got := defaultsLocation("", cfg); got != cfg.DefaultsURL {
		t.Fatalf("defaultsLocation = %q, want configured url", got)
	}
	if got := defaultsLocation("/local/defaults", cfg); got != "/local/defaults" {
		t.Fatalf("defaultsLocation = %q, want flag", got)
	}
}
