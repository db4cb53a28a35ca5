package entry

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/philackm/devlog/internal/convert"
	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/fsutil"
)

// FrontmatterParser reads metadata from a YAML header:
//
//	---
//	date: 2016-12-15
//	kind: [text, image]
//	tag: [Go, Tooling]
//	---
//
// Scalars become a single value and lists keep their order. Only the body
// after the header is converted.
type FrontmatterParser struct {
	converter convert.Converter
}

func NewFrontmatterParser(conv convert.Converter) *FrontmatterParser {
	return &FrontmatterParser{converter: conv}
}

func (p *FrontmatterParser) ParseMeta(path string) (domain.Meta, error) {
	header, body, err := p.split(path)
	if err != nil {
		return nil, err
	}

	meta := domain.Meta{}
	for key, value := range header {
		for _, v := range flatten(value) {
			meta.Add(key, v)
		}
	}
	return parseImages(body, meta), nil
}

func (p *FrontmatterParser) GenerateHTML(ctx context.Context, path string) (string, error) {
	_, body, err := p.split(path)
	if err != nil {
		return "", err
	}
	return p.converter.Convert(ctx, string(body))
}

func (p *FrontmatterParser) split(path string) (map[string]any, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	header := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(data), &header)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return header, body, nil
}

// ReadBody returns the markdown of an entry without any YAML header
func ReadBody(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	var header map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &header)
	if err != nil {
		return "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return string(body), nil
}

// Only main-image is taken from the body; metadata lines there are ignored.
func parseImages(body []byte, meta domain.Meta) domain.Meta {
	for _, line := range fsutil.SplitLines(string(body)) {
		if m := imagePattern.FindStringSubmatch(line); m != nil {
			meta.Add(MainImageKey, m[1])
		}
	}
	return meta
}

func flatten(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case time.Time:
		return []string{v.Format("2006-01-02")}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, flatten(item)...)
		}
		return out
	case []string:
		return v
	default:
		return []string{fmt.Sprint(v)}
	}
}
