package template

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/philackm/devlog/internal/domain"
)

const (
	IndexView = "index"
	PageView  = "page"
)

// Views holds every template of a views directory, keyed by base name
type Views struct {
	dir       string
	templates map[string]*Template
}

// LoadViews parses every .html file directly inside dir
func LoadViews(dir string) (*Views, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read views %s: %w", dir, err)
	}

	v := &Views{dir: dir, templates: map[string]*Template{}}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".html" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("read view %s: %w", f.Name(), err)
		}
		name := strings.TrimSuffix(f.Name(), ".html")
		v.templates[name] = Parse(f.Name(), string(data))
	}
	return v, nil
}

// Get returns the named template or an error wrapping fs.ErrNotExist
func (v *Views) Get(name string) (*Template, error) {
	t, ok := v.templates[name]
	if !ok {
		return nil, fmt.Errorf("view %s.html not found in %s: %w", name, v.dir, fs.ErrNotExist)
	}
	return t, nil
}

// View returns the fragment template for kind
func (v *Views) View(kind domain.ViewKind) (*Template, error) {
	return v.Get(string(kind))
}

// Page returns page-<kind>.html when present, else page.html
func (v *Views) Page(kind domain.ViewKind) (*Template, error) {
	if t, ok := v.templates[PageView+"-"+string(kind)]; ok {
		return t, nil
	}
	return v.Get(PageView)
}

// Index returns index.html
func (v *Views) Index() (*Template, error) {
	return v.Get(IndexView)
}
