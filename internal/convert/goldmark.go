package convert

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Goldmark converts markdown locally. It is stateless and safe to reuse.
type Goldmark struct {
	engine goldmark.Markdown
}

// NewGoldmark builds an engine close to GitHub's flavour: GFM, linkify,
// task lists, heading ids and raw HTML passthrough.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (g *Goldmark) Convert(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Converter: "goldmark", Err: err}
	}
	var buf bytes.Buffer
	if err := g.engine.Convert([]byte(markdown), &buf); err != nil {
		return "", &Error{Converter: "goldmark", Err: err}
	}
	return buf.String(), nil
}
