package entry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/philackm/devlog/internal/convert"
)

func writeEntry(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

var echo = convert.Func(func(_ context.Context, markdown string) (string, error) {
	return "<p>" + markdown + "</p>", nil
})

const sampleEntry = `[title]: # (First post)
[date]: # (2016-12-15)
[kind]: # (text)
[kind]: # (image)
[tag]: # (Go)
[tag]: # (Tooling)

Some text with [a link](http://example.com).

![screenshot](shot.png)
`

func TestMarkdownParseMetaKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "first.md")
	writeEntry(t, path, sampleEntry)

	meta, err := NewMarkdownParser(echo).ParseMeta(path)
	if err != nil {
		t.Fatalf("ParseMeta: %v", err)
	}

	want := map[string][]string{
		"title":      {"First post"},
		"date":       {"2016-12-15"},
		"kind":       {"text", "image"},
		"tag":        {"Go", "Tooling"},
		"main-image": {"shot.png"},
	}
	for key, values := range want {
		if got := meta.Values(key); !reflect.DeepEqual(got, values) {
			t.Errorf("meta[%q] = %v, want %v", key, got, values)
		}
	}
	if len(meta) != len(want) {
		t.Errorf("unexpected keys in %v", meta)
	}
	if meta.Has("columns") {
		t.Error("absent key should stay absent")
	}
}

func TestMarkdownGenerateHTMLSendsWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "first.md")
	writeEntry(t, path, sampleEntry)

	html, err := NewMarkdownParser(echo).GenerateHTML(context.Background(), path)
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	if html != "<p>"+sampleEntry+"</p>" {
		t.Fatalf("html = %q", html)
	}
}

func TestGenerateHTMLPropagatesConversionError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "first.md")
	writeEntry(t, path, sampleEntry)

	failing := convert.Func(func(context.Context, string) (string, error) {
		return "", &convert.Error{Converter: "stub", Status: 500, Err: errors.New("boom")}
	})
	_, err := NewMarkdownParser(failing).GenerateHTML(context.Background(), path)
	if !errors.Is(err, convert.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

func TestFrontmatterParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "second.md")
	writeEntry(t, path, `---
title: Second post
date: "2017-01-20"
kind: [video]
columns: 2
ui: light
tag:
  - Go
  - Web
---
Body text.

![cover](cover.jpg)
`)

	var converted string
	conv := convert.Func(func(_ context.Context, markdown string) (string, error) {
		converted = markdown
		return "ok", nil
	})
	p := NewFrontmatterParser(conv)

	meta, err := p.ParseMeta(path)
	if err != nil {
		t.Fatalf("ParseMeta: %v", err)
	}
	checks := map[string][]string{
		"title":      {"Second post"},
		"date":       {"2017-01-20"},
		"kind":       {"video"},
		"columns":    {"2"},
		"ui":         {"light"},
		"tag":        {"Go", "Web"},
		"main-image": {"cover.jpg"},
	}
	for key, values := range checks {
		if got := meta.Values(key); !reflect.DeepEqual(got, values) {
			t.Errorf("meta[%q] = %v, want %v", key, got, values)
		}
	}

	if _, err := p.GenerateHTML(context.Background(), path); err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	if strings.Contains(converted, "title:") || !strings.Contains(converted, "Body text.") {
		t.Fatalf("expected only the body to be converted, got %q", converted)
	}
}

func TestDiscoverSkipsBrokenEntriesAndContinues(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, filepath.Join(root, "alpha", "alpha.md"), "[date]: # (2016-01-01)\n")
	writeEntry(t, filepath.Join(root, "alpha", "images", "a.png"), "png")
	writeEntry(t, filepath.Join(root, "alpha", "notes.txt"), "ignored")
	writeEntry(t, filepath.Join(root, "beta", "beta.draft.md"), "[date]: # (2016-02-01)\n")
	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken.md")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	entries, skipped, err := Discover(root, NewMarkdownParser(echo), ".md", nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(skipped) != 1 || filepath.Base(skipped[0].Path) != "broken.md" {
		t.Fatalf("skipped = %v", skipped)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	byName := map[string]int{}
	for i, e := range entries {
		byName[e.FileName] = i
		if !filepath.IsAbs(e.Path) {
			t.Errorf("path %q is not absolute", e.Path)
		}
		if e.LastModified.IsZero() {
			t.Errorf("%s has no modification time", e.FileName)
		}
	}
	alpha, ok := byName["alpha"]
	if !ok {
		t.Fatalf("missing alpha in %v", byName)
	}
	if _, ok := byName["beta"]; !ok {
		t.Fatalf("file name should stop at the first dot: %v", byName)
	}
	if assets := entries[alpha].Assets; len(assets) != 1 || filepath.Base(assets[0]) != "a.png" {
		t.Fatalf("alpha assets = %v", assets)
	}
}

func TestDiscoverMissingRootFails(t *testing.T) {
	_, _, err := Discover(filepath.Join(t.TempDir(), "nope"), NewMarkdownParser(echo), ".md", nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"/a/b/post.md":       "post",
		"/a/b/post.draft.md": "post",
		"noext":              "noext",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewParserRejectsUnknownFormat(t *testing.T) {
	if _, err := NewParser("rst", echo); err == nil {
		t.Fatal("expected error")
	}
}
