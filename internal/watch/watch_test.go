package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRebuildsOnceAfterBurstOfChanges(t *testing.T) {
	dir := t.TempDir()
	var rebuilds atomic.Int32
	done := make(chan struct{}, 10)

	w := New([]string{dir}, func(context.Context) error {
		rebuilds.Add(1)
		done <- struct{}{}
		return nil
	}, nil)
	w.SetDebounce(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// let the watcher register before writing
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "entry.md"), []byte{byte('a' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after changes")
	}
	time.Sleep(300 * time.Millisecond)
	if n := rebuilds.Load(); n != 1 {
		t.Fatalf("rebuilds = %d, want 1", n)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunFailsForMissingDirectory(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context) error { return nil }, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRelevant(t *testing.T) {
	cases := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/e/a.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/e/a.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/e/a.md.tmp", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/e/a.md~", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/v/index.html", Op: fsnotify.Remove}, true},
	}
	for _, tc := range cases {
		if got := relevant(tc.event); got != tc.want {
			t.Errorf("relevant(%v) = %v, want %v", tc.event, got, tc.want)
		}
	}
}
