package build

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/entry"
	"github.com/philackm/devlog/internal/fsutil"
	"github.com/philackm/devlog/internal/history"
	"github.com/philackm/devlog/internal/logging"
	"github.com/philackm/devlog/internal/template"
)

// Layout locates the parts of a devlog project. Relative paths are resolved
// against Root.
type Layout struct {
	Root            string
	EntriesDir      string
	ViewsDir        string
	OutputDir       string
	PagesDir        string
	LedgerFile      string
	EntryExtension  string
	AssetExtensions []string
}

// DefaultLayout is the layout created by init
func DefaultLayout(root string) Layout {
	return Layout{
		Root:            root,
		EntriesDir:      "entries",
		ViewsDir:        "views",
		OutputDir:       "output",
		PagesDir:        "pages",
		LedgerFile:      history.FileName,
		EntryExtension:  ".md",
		AssetExtensions: entry.DefaultAssetExtensions,
	}
}

func (l Layout) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}

func (l Layout) Entries() string { return l.resolve(l.EntriesDir) }
func (l Layout) Views() string   { return l.resolve(l.ViewsDir) }
func (l Layout) Output() string  { return l.resolve(l.OutputDir) }
func (l Layout) Ledger() string  { return l.resolve(l.LedgerFile) }
func (l Layout) Pages() string   { return filepath.Join(l.Output(), l.PagesDir) }

// PagePath is where the page of e is written
func (l Layout) PagePath(e *domain.Entry) string {
	return filepath.Join(l.Pages(), e.FileName, e.FileName+".html")
}

// Recorder receives every finished run
type Recorder interface {
	RecordRun(ctx context.Context, run *domain.Run) error
}

// Report summarises one build
type Report struct {
	Run     *domain.Run
	Indexed int
}

// Builder runs builds for one project. Builds are serialized.
type Builder struct {
	layout   Layout
	parser   entry.Parser
	logger   logging.Logger
	recorder Recorder
	now      func() time.Time

	mu sync.Mutex
}

type Option func(*Builder)

// WithRecorder logs every run to r
func WithRecorder(r Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// WithClock replaces time.Now for ledger stamps and run times
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func New(layout Layout, parser entry.Parser, logger logging.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = logging.NoOp()
	}
	b := &Builder{
		layout: layout,
		parser: parser,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Layout() Layout {
	return b.layout
}

// Build renders pages for every entry (or only stale ones when incremental)
// and regenerates the index from all entries. Per-entry failures are logged
// and reported; the returned error is reserved for setup and index failures.
func (b *Builder) Build(ctx context.Context, incremental bool) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	run := &domain.Run{
		ID:          uuid.New().String(),
		Root:        b.layout.Root,
		Incremental: incremental,
		StartedAt:   b.now(),
	}
	report := &Report{Run: run}

	for _, dir := range []string{b.layout.Output(), b.layout.Pages()} {
		if err := fsutil.CreateDirectory(dir); err != nil {
			return report, err
		}
	}

	hist, err := history.Load(b.layout.Ledger())
	if err != nil {
		return report, err
	}
	hist.SetClock(b.now)

	views, err := template.LoadViews(b.layout.Views())
	if err != nil {
		return report, err
	}

	entries, skipped, err := entry.Discover(b.layout.Entries(), b.parser, b.layout.EntryExtension, b.layout.AssetExtensions)
	if err != nil {
		return report, err
	}
	for _, skip := range skipped {
		b.logger.Warn("unable to parse entry, skipping", "path", skip.Path, "error", skip.Err)
		run.Skipped++
		run.Results = append(run.Results, domain.EntryResult{
			Path:   skip.Path,
			Status: domain.StatusSkipped,
			Error:  skip.Err.Error(),
		})
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := domain.EntryResult{Path: e.Path, FileName: e.FileName}
		if hash, err := fsutil.HashFile(e.Path); err == nil {
			result.Hash = hash
		}

		if incremental && !hist.RequiresRebuild(e) {
			result.Status = domain.StatusUnchanged
			run.Unchanged++
			run.Results = append(run.Results, result)
			continue
		}

		if err := b.buildEntry(ctx, views, e); err != nil {
			b.logger.Warn("entry build failed", "entry", e.FileName, "error", err)
			result.Status = domain.StatusFailed
			result.Error = err.Error()
			run.Failed++
			run.Results = append(run.Results, result)
			continue
		}

		if err := hist.Update(ctx, e); err != nil {
			return report, err
		}
		b.logger.Info("built entry", "entry", e.FileName)
		result.Status = domain.StatusBuilt
		run.Built++
		run.Results = append(run.Results, result)
	}

	indexed, err := b.writeIndex(ctx, views, entries)
	if err != nil {
		return report, err
	}
	report.Indexed = indexed

	finished := b.now()
	run.FinishedAt = &finished
	b.logger.Info("build finished",
		"built", run.Built, "unchanged", run.Unchanged,
		"failed", run.Failed, "skipped", run.Skipped, "indexed", indexed)

	if b.recorder != nil {
		if err := b.recorder.RecordRun(ctx, run); err != nil {
			b.logger.Warn("unable to record build run", "run", run.ID, "error", err)
		}
	}
	return report, nil
}

func (b *Builder) buildEntry(ctx context.Context, views *template.Views, e *domain.Entry) error {
	body, err := b.parser.GenerateHTML(ctx, e.Path)
	if err != nil {
		return err
	}

	page, err := views.Page(template.SelectView(e.Meta))
	if err != nil {
		return err
	}
	html, err := template.RenderEntry(page, e, map[string]string{"entry": body})
	if err != nil {
		return err
	}

	if err := fsutil.WriteString(ctx, b.layout.PagePath(e), html); err != nil {
		return err
	}
	if err := fsutil.CopyFiles(ctx, e.Assets, filepath.Join(b.layout.Pages(), e.FileName)); err != nil {
		return err
	}

	e.RenderedBody = body
	return nil
}

type dated struct {
	entry *domain.Entry
	date  time.Time
}

// SortByDate returns the entries with a valid date, oldest first, keeping
// discovery order for equal dates. The rest are returned separately.
func SortByDate(entries []*domain.Entry) (sorted []*domain.Entry, undated map[*domain.Entry]error) {
	var items []dated
	undated = map[*domain.Entry]error{}
	for _, e := range entries {
		date, err := template.ParseDate(e.Meta)
		if err != nil {
			undated[e] = err
			continue
		}
		items = append(items, dated{entry: e, date: date})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].date.Before(items[j].date)
	})

	sorted = make([]*domain.Entry, len(items))
	for i, item := range items {
		sorted[i] = item.entry
	}
	return sorted, undated
}

func (b *Builder) writeIndex(ctx context.Context, views *template.Views, entries []*domain.Entry) (int, error) {
	index, err := views.Index()
	if err != nil {
		return 0, err
	}

	sorted, undated := SortByDate(entries)
	for e, err := range undated {
		b.logger.Warn("entry left out of index", "entry", e.FileName, "error", err)
	}

	var fragments strings.Builder
	indexed := 0
	for _, e := range sorted {
		view, err := views.View(template.SelectView(e.Meta))
		if err == nil {
			var fragment string
			fragment, err = template.RenderEntry(view, e, nil)
			if err == nil {
				fragments.WriteString(fragment)
				indexed++
				continue
			}
		}
		b.logger.Warn("entry left out of index", "entry", e.FileName, "error", err)
	}

	html, err := index.Render(func(name string) (string, bool, error) {
		if name == "entries" {
			return fragments.String(), true, nil
		}
		return "", false, nil
	})
	if err != nil {
		return 0, err
	}

	if err := fsutil.WriteString(ctx, filepath.Join(b.layout.Output(), "index.html"), html); err != nil {
		return 0, fmt.Errorf("write index: %w", err)
	}
	return indexed, nil
}
