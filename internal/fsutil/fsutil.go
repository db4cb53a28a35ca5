package fsutil

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var service = afs.New()

// CreateDirectory creates path and any parents. Existing directories are fine.
func CreateDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// CreateFile creates an empty file in dir, failing if it already exists
func CreateFile(dir, name string) error {
	if err := CreateDirectory(dir); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create file %s: %w", name, err)
	}
	return f.Close()
}

// FindFiles walks root and returns every non-directory whose name ends in ext
func FindFiles(root, ext string) ([]string, error) {
	ext = "." + strings.TrimPrefix(ext, ".")

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return skipUnreadable(root, path, d, err)
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if len(name) > len(ext) && strings.HasSuffix(name, ext) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return found, nil
}

// skipUnreadable keeps a walk going past anything below root that cannot be
// read. Only a failure on root itself ends the walk.
func skipUnreadable(root, path string, d fs.DirEntry, err error) error {
	if path == root {
		return err
	}
	if d != nil && d.IsDir() {
		return fs.SkipDir
	}
	return nil
}

// FindAnyFiles runs FindFiles once per extension, grouping results by extension
func FindAnyFiles(root string, exts []string) ([]string, error) {
	var found []string
	for _, ext := range exts {
		files, err := FindFiles(root, ext)
		if err != nil {
			return nil, err
		}
		found = append(found, files...)
	}
	return found, nil
}

// ReadString reads a whole file
func ReadString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// ReadLines reads a file and splits it on line boundaries
func ReadLines(path string) ([]string, error) {
	text, err := ReadString(path)
	if err != nil {
		return nil, err
	}
	return SplitLines(text), nil
}

// SplitLines splits on \n, \r\n and \r without producing a trailing empty line
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// WriteFile replaces path with data. The content is uploaded next to the target
// and renamed into place so readers never observe a half-written file.
func WriteFile(ctx context.Context, path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := CreateDirectory(filepath.Dir(abs)); err != nil {
		return err
	}

	tmp := abs + ".tmp"
	if err := service.Upload(ctx, url.ToFileURL(tmp), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// WriteString is WriteFile for text
func WriteString(ctx context.Context, path, text string) error {
	return WriteFile(ctx, path, []byte(text))
}

// CopyFiles copies each file into dest, keeping the name of the folder that
// directly contains it: /a/b/images/x.png -> dest/images/x.png
func CopyFiles(ctx context.Context, files []string, dest string) error {
	for _, src := range files {
		abs, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", src, err)
		}
		folder := filepath.Base(filepath.Dir(abs))
		target := filepath.Join(dest, folder, filepath.Base(abs))

		data, err := service.DownloadWithURL(ctx, url.ToFileURL(abs))
		if err != nil {
			return fmt.Errorf("read asset %s: %w", src, err)
		}
		if err := WriteFile(ctx, target, data); err != nil {
			return err
		}
	}
	return nil
}
