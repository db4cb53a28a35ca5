package entry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philackm/devlog/internal/convert"
	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/fsutil"
)

// Parser extracts metadata from an entry file and renders its body to HTML
type Parser interface {
	ParseMeta(path string) (domain.Meta, error)
	GenerateHTML(ctx context.Context, path string) (string, error)
}

// Supported entry formats
const (
	FormatMarkdown    = "markdown"
	FormatFrontmatter = "frontmatter"
)

// DefaultAssetExtensions are copied next to the built page
var DefaultAssetExtensions = []string{".jpg", ".png", ".gif", ".mp4", ".webm", ".mov"}

// NewParser returns the parser for format
func NewParser(format string, conv convert.Converter) (Parser, error) {
	switch format {
	case "", FormatMarkdown:
		return NewMarkdownParser(conv), nil
	case FormatFrontmatter:
		return NewFrontmatterParser(conv), nil
	default:
		return nil, fmt.Errorf("unknown entry format %q", format)
	}
}

// SkipError records an entry file that discovery could not load
type SkipError struct {
	Path string
	Err  error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skip %s: %v", e.Path, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// Discover finds every entry under root and loads its metadata and assets.
// Files that fail to load are returned as skips; only a root that cannot be
// walked is an error.
func Discover(root string, parser Parser, ext string, assetExts []string) ([]*domain.Entry, []*SkipError, error) {
	if ext == "" {
		ext = ".md"
	}
	if assetExts == nil {
		assetExts = DefaultAssetExtensions
	}

	paths, err := fsutil.FindFiles(root, ext)
	if err != nil {
		return nil, nil, fmt.Errorf("discover entries: %w", err)
	}

	var entries []*domain.Entry
	var skipped []*SkipError
	for _, path := range paths {
		e, err := load(path, parser, assetExts)
		if err != nil {
			skipped = append(skipped, &SkipError{Path: path, Err: err})
			continue
		}
		entries = append(entries, e)
	}
	return entries, skipped, nil
}

func load(path string, parser Parser, assetExts []string) (*domain.Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	meta, err := parser.ParseMeta(abs)
	if err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	assets, err := fsutil.FindAnyFiles(filepath.Dir(abs), assetExts)
	if err != nil {
		return nil, fmt.Errorf("find assets: %w", err)
	}

	return &domain.Entry{
		Path:         abs,
		FileName:     FileName(abs),
		LastModified: info.ModTime(),
		Meta:         meta,
		Assets:       assets,
	}, nil
}

// FileName is the base name of path up to its first dot
func FileName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}
