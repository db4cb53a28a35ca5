package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/fsutil"
)

// TimeLayout is the ledger timestamp format: zero padded, 24 hour, local time
const TimeLayout = "2006-01-02-15-04-05"

// FileName is the ledger name inside a project root
const FileName = ".buildhistory"

var linePattern = regexp.MustCompile(`^(.*)\t(.*)$`)

// History records when each entry was last built successfully.
// Timestamps are stored with whole-second precision and compared against the
// full modification time, so an edit later in the build's second still counts.
type History struct {
	path    string
	records map[string]time.Time
	now     func() time.Time
	mu      sync.Mutex
}

// Load reads the ledger at path. A missing file yields an empty history;
// lines that are not path<TAB>timestamp are ignored.
func Load(path string) (*History, error) {
	h := &History{
		path:    path,
		records: make(map[string]time.Time),
		now:     time.Now,
	}

	lines, err := fsutil.ReadLines(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return h, nil
		}
		return nil, fmt.Errorf("load build history: %w", err)
	}

	for _, line := range lines {
		match := linePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		built, err := time.ParseInLocation(TimeLayout, match[2], time.Local)
		if err != nil {
			continue
		}
		h.records[match[1]] = built
	}

	return h, nil
}

// SetClock replaces the wall clock used by Update
func (h *History) SetClock(now func() time.Time) {
	h.mu.Lock()
	h.now = now
	h.mu.Unlock()
}

// Path returns the ledger location
func (h *History) Path() string {
	return h.path
}

// Len returns the number of recorded entries
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// LastBuild returns the recorded build time of e
func (h *History) LastBuild(e *domain.Entry) (time.Time, bool) {
	key, err := key(e)
	if err != nil {
		return time.Time{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	built, ok := h.records[key]
	return built, ok
}

// RequiresRebuild is true when e has never been built or was modified after
// its recorded build. Equal timestamps do not trigger a rebuild.
func (h *History) RequiresRebuild(e *domain.Entry) bool {
	built, ok := h.LastBuild(e)
	if !ok {
		return true
	}
	return built.Before(e.LastModified)
}

// Update stamps e with the current time and rewrites the whole ledger
func (h *History) Update(ctx context.Context, e *domain.Entry) error {
	key, err := key(e)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[key] = h.now().Truncate(time.Second)
	return h.save(ctx)
}

func (h *History) save(ctx context.Context) error {
	var sb strings.Builder
	for path, built := range h.records {
		sb.WriteString(path)
		sb.WriteString("\t")
		sb.WriteString(built.In(time.Local).Format(TimeLayout))
		sb.WriteString("\n")
	}
	if err := fsutil.WriteString(ctx, h.path, sb.String()); err != nil {
		return fmt.Errorf("save build history: %w", err)
	}
	return nil
}

func key(e *domain.Entry) (string, error) {
	abs, err := filepath.Abs(e.Path)
	if err != nil {
		return "", fmt.Errorf("resolve entry path %s: %w", e.Path, err)
	}
	return abs, nil
}
