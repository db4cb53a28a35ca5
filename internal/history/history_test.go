package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/philackm/devlog/internal/domain"
)

func TestLoadMissingLedgerIsEmpty(t *testing.T) {
	h, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Len() != 0 {
		t.Fatalf("expected empty history, got %d records", h.Len())
	}
}

func TestLoadIgnoresMalformedLines(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), FileName)
	content := strings.Join([]string{
		"/abs/a.md\t2016-12-15-14-17-32",
		"no tab on this line",
		"/abs/b.md\tnot-a-date",
		"",
		"/abs/c.md\t2020-01-02-03-04-05",
	}, "\n")
	if err := os.WriteFile(ledger, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	h, err := Load(ledger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", h.Len())
	}

	built, ok := h.LastBuild(&domain.Entry{Path: "/abs/a.md"})
	if !ok {
		t.Fatal("expected record for /abs/a.md")
	}
	want := time.Date(2016, 12, 15, 14, 17, 32, 0, time.Local)
	if !built.Equal(want) {
		t.Fatalf("LastBuild = %v, want %v", built, want)
	}
}

func TestRequiresRebuild(t *testing.T) {
	recorded := time.Date(2021, 3, 1, 10, 0, 0, 0, time.Local)
	h := &History{
		records: map[string]time.Time{"/abs/entry.md": recorded},
		now:     time.Now,
	}

	cases := []struct {
		name     string
		path     string
		modified time.Time
		want     bool
	}{
		{"no record", "/abs/other.md", recorded, true},
		{"modified after build", "/abs/entry.md", recorded.Add(time.Second), true},
		{"equal timestamps", "/abs/entry.md", recorded, false},
		{"later in the same second", "/abs/entry.md", recorded.Add(700 * time.Millisecond), true},
		{"modified before build", "/abs/entry.md", recorded.Add(-time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &domain.Entry{Path: tc.path, LastModified: tc.modified}
			if got := h.RequiresRebuild(e); got != tc.want {
				t.Fatalf("RequiresRebuild = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUpdatePersistsImmediately(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, FileName)

	h, err := Load(ledger)
	if err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2022, 5, 6, 7, 8, 9, 500, time.Local)
	h.SetClock(func() time.Time { return stamp })

	entryPath := filepath.Join(dir, "entries", "one.md")
	e := &domain.Entry{Path: entryPath}
	if err := h.Update(context.Background(), e); err != nil {
		t.Fatalf("Update: %v", err)
	}

	data, err := os.ReadFile(ledger)
	if err != nil {
		t.Fatalf("ledger not written: %v", err)
	}
	want := entryPath + "\t2022-05-06-07-08-09\n"
	if string(data) != want {
		t.Fatalf("ledger = %q, want %q", data, want)
	}

	reloaded, err := Load(ledger)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.RequiresRebuild(&domain.Entry{Path: entryPath, LastModified: stamp.Add(-time.Minute)}) {
		t.Fatal("entry modified before the recorded build should not require rebuild")
	}
	if !reloaded.RequiresRebuild(&domain.Entry{Path: entryPath, LastModified: stamp.Add(time.Minute)}) {
		t.Fatal("entry modified after the recorded build should require rebuild")
	}
}
