package entry

import (
	"context"
	"regexp"

	"github.com/philackm/devlog/internal/convert"
	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/fsutil"
)

var (
	// [key]: # (value)
	metaPattern = regexp.MustCompile(`^\[(.*)\]:\s#\s\((.*)\)`)
	// ![alt](file)
	imagePattern = regexp.MustCompile(`^!.*\((.*)\)`)
)

// MainImageKey collects every image referenced at the start of a line
const MainImageKey = "main-image"

// MarkdownParser reads metadata from markdown link-definition lines
type MarkdownParser struct {
	converter convert.Converter
}

func NewMarkdownParser(conv convert.Converter) *MarkdownParser {
	return &MarkdownParser{converter: conv}
}

func (p *MarkdownParser) ParseMeta(path string) (domain.Meta, error) {
	lines, err := fsutil.ReadLines(path)
	if err != nil {
		return nil, err
	}
	return parseLines(lines, domain.Meta{}), nil
}

// GenerateHTML converts the whole file, metadata lines included; they are
// link definitions and render to nothing.
func (p *MarkdownParser) GenerateHTML(ctx context.Context, path string) (string, error) {
	text, err := fsutil.ReadString(path)
	if err != nil {
		return "", err
	}
	return p.converter.Convert(ctx, text)
}

func parseLines(lines []string, meta domain.Meta) domain.Meta {
	for _, line := range lines {
		if m := metaPattern.FindStringSubmatch(line); m != nil {
			meta.Add(m[1], m[2])
		}
		if m := imagePattern.FindStringSubmatch(line); m != nil {
			meta.Add(MainImageKey, m[1])
		}
	}
	return meta
}
