package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/philackm/devlog/internal/config"
	"github.com/philackm/devlog/internal/fetcher"
	"github.com/philackm/devlog/internal/fsutil"
	"github.com/philackm/devlog/internal/history"
	"github.com/philackm/devlog/internal/logging"
)

// RootFolder is created inside the init location
const RootFolder = "devlog"

// ErrExists is returned when the location already holds a devlog
var ErrExists = errors.New("a devlog already exists here")

// Resource maps a file of the defaults tree to its place in the project
type Resource struct {
	Source string
	Dest   string
}

// DefaultViews are the views, scripts and styles every project needs
var DefaultViews = []Resource{
	{"views/text.html", "views/text.html"},
	{"views/image.html", "views/image.html"},
	{"views/video.html", "views/video.html"},
	{"views/page.html", "views/page.html"},
	{"views/index.html", "views/index.html"},
	{"javascript/script.js", "output/javascript/script.js"},
	{"css/page.css", "output/css/page.css"},
	{"css/style.css", "output/css/style.css"},
}

// ExampleEntries are sample entries and images, installed with --examples
var ExampleEntries = []Resource{
	{"entries/text/text-1/text-1.md", "entries/text/text-1/text-1.md"},
	{"entries/text/text-2/text-2.md", "entries/text/text-2/text-2.md"},
	{"entries/text/text-3/text-3.md", "entries/text/text-3/text-3.md"},
	{"entries/images/image-1/image-1.md", "entries/images/image-1/image-1.md"},
	{"entries/images/image-2/image-2.md", "entries/images/image-2/image-2.md"},
	{"entries/images/image-2-withtext/image-2-withtext.md", "entries/images/image-2-withtext/image-2-withtext.md"},
	{"entries/images/image-3/image-3.md", "entries/images/image-3/image-3.md"},
	{"entries/images/image-3-withtext/image-3-withtext.md", "entries/images/image-3-withtext/image-3-withtext.md"},
	{"entries/images/image-1/images/smartphone.jpg", "entries/images/image-1/images/smartphone.jpg"},
	{"entries/images/image-2/images/beach.jpg", "entries/images/image-2/images/beach.jpg"},
	{"entries/images/image-2-withtext/images/beach.jpg", "entries/images/image-2-withtext/images/beach.jpg"},
	{"entries/images/image-3/images/computer.png", "entries/images/image-3/images/computer.png"},
	{"entries/images/image-3-withtext/images/computer.png", "entries/images/image-3-withtext/images/computer.png"},
	{"assets/user-unknown-icon.jpg", "output/assets/user-unknown-icon.jpg"},
}

// Source provides files of the defaults tree
type Source interface {
	Get(ctx context.Context, rel string) ([]byte, error)
}

// NewSource serves defaults from a URL, or from a local directory when
// location is not a URL.
func NewSource(location string, timeout time.Duration) Source {
	if fetcher.IsURL(location) {
		return &remoteSource{base: strings.TrimSuffix(location, "/"), fetcher: fetcher.New(timeout)}
	}
	return localSource(location)
}

type remoteSource struct {
	base    string
	fetcher *fetcher.Fetcher
}

func (s *remoteSource) Get(ctx context.Context, rel string) ([]byte, error) {
	return s.fetcher.Get(ctx, s.base+"/"+rel)
}

type localSource string

func (s localSource) Get(_ context.Context, rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(string(s), filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("read default %s: %w", rel, err)
	}
	return data, nil
}

// Options controls Init
type Options struct {
	Examples bool
	Source   Source
	Logger   logging.Logger
	// Config is written to devlog.yaml with its root moved to the new
	// project. Defaults are used when nil.
	Config *config.Config
}

// Result lists what Init wrote and what it could not find
type Result struct {
	Root    string
	Written []string
	Missing []string
}

// Init creates <location>/devlog with its entries, views and output folders,
// an empty build history, a devlog.yaml and the default views. Defaults that
// cannot be retrieved are reported and skipped.
func Init(ctx context.Context, location string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	root, err := filepath.Abs(filepath.Join(location, RootFolder))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", location, err)
	}
	cfg := config.Default(root)
	if opts.Config != nil {
		c := *opts.Config
		c.Root = root
		cfg = &c
	}

	for _, dir := range []string{root, cfg.Path(cfg.EntriesDir), cfg.Path(cfg.ViewsDir), cfg.Path(cfg.OutputDir)} {
		if err := fsutil.CreateDirectory(dir); err != nil {
			return nil, err
		}
	}

	if err := fsutil.CreateFile(root, history.FileName); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%s: %w", root, ErrExists)
		}
		return nil, err
	}

	if err := cfg.Write(ctx); err != nil {
		return nil, err
	}

	result := &Result{Root: root}
	if opts.Source == nil {
		return result, nil
	}

	resources := DefaultViews
	if opts.Examples {
		resources = append(append([]Resource{}, DefaultViews...), ExampleEntries...)
	}

	for _, res := range resources {
		data, err := opts.Source.Get(ctx, res.Source)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("unable to locate default resource", "resource", res.Source, "error", err)
			result.Missing = append(result.Missing, res.Source)
			continue
		}
		dest := filepath.Join(root, filepath.FromSlash(res.Dest))
		if err := fsutil.WriteFile(ctx, dest, data); err != nil {
			return result, err
		}
		result.Written = append(result.Written, res.Dest)
	}

	logger.Info("initialised devlog", "root", root, "written", len(result.Written), "missing", len(result.Missing))
	return result, nil
}
