package template

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/philackm/devlog/internal/domain"
)

// DateLayout is the format of the date metadata value
const DateLayout = "2006-01-02"

// SelectView picks the view for an entry: video, then image, then text
func SelectView(meta domain.Meta) domain.ViewKind {
	switch {
	case meta.Contains("kind", string(domain.ViewVideo)):
		return domain.ViewVideo
	case meta.Contains("kind", string(domain.ViewImage)):
		return domain.ViewImage
	default:
		return domain.ViewText
	}
}

type computed func(e *domain.Entry) (string, error)

var computedFields = map[string]computed{
	"classes":         Classes,
	"tags":            func(e *domain.Entry) (string, error) { return Tags(e.Meta), nil },
	"formattedDate":   func(e *domain.Entry) (string, error) { return FormattedDate(e.Meta) },
	"page-link":       func(e *domain.Entry) (string, error) { return PageLink(e), nil },
	"main-image-link": func(e *domain.Entry) (string, error) { return MainImageLink(e), nil },
}

// RenderEntry renders tmpl for e. Names resolve from extra first, then the
// computed fields, then the first raw metadata value.
func RenderEntry(tmpl *Template, e *domain.Entry, extra map[string]string) (string, error) {
	out, err := tmpl.Render(func(name string) (string, bool, error) {
		if v, ok := extra[name]; ok {
			return v, true, nil
		}
		if fn, ok := computedFields[name]; ok {
			v, err := fn(e)
			if err != nil {
				return "", false, err
			}
			return v, true, nil
		}
		if values := e.Meta.Values(name); len(values) > 0 {
			return values[0], true, nil
		}
		return "", false, nil
	})
	if err != nil {
		return "", fmt.Errorf("render %s for %s: %w", tmpl.Name, e.FileName, err)
	}
	return out, nil
}

// Classes builds the CSS class list of an entry
func Classes(e *domain.Entry) (string, error) {
	kinds := e.Meta.Values("kind")
	if len(kinds) == 0 {
		return "", &domain.MissingKeyError{Key: "kind"}
	}

	classes := make([]string, 0, len(kinds)+2)
	for _, kind := range kinds {
		if kind == string(domain.ViewText) && len(kinds) >= 2 {
			classes = append(classes, "withtext")
		} else {
			classes = append(classes, kind)
		}
	}

	columns, err := e.Meta.First("columns")
	if err != nil {
		return "", err
	}
	classes = append(classes, "col-"+columns)

	media := e.Meta.Contains("kind", string(domain.ViewVideo)) || e.Meta.Contains("kind", string(domain.ViewImage))
	if media && !e.Meta.Contains("kind", string(domain.ViewText)) {
		ui, err := e.Meta.First("ui")
		if err != nil {
			return "", err
		}
		if ui == "light" {
			classes = append(classes, "lightui")
		} else {
			classes = append(classes, "darkui")
		}
	}

	return strings.Join(classes, " "), nil
}

// Tags renders one span per tag value, each followed by a space
func Tags(meta domain.Meta) string {
	var b strings.Builder
	for _, tag := range meta.Values("tag") {
		fmt.Fprintf(&b, `<span class="tag %s">%s</span> `, strings.ToLower(tag), tag)
	}
	return b.String()
}

// ParseDate reads the first date value
func ParseDate(meta domain.Meta) (time.Time, error) {
	raw, err := meta.First("date")
	if err != nil {
		return time.Time{}, err
	}
	date, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: %w", raw, err)
	}
	return date, nil
}

// FormattedDate renders the date as "January 2006"
func FormattedDate(meta domain.Meta) (string, error) {
	date, err := ParseDate(meta)
	if err != nil {
		return "", err
	}
	return date.Format("January 2006"), nil
}

// PageLink is the index-relative link to the entry page
func PageLink(e *domain.Entry) string {
	return path.Join("pages", e.FileName, e.FileName+".html")
}

// MainImageLink points at the first main image, or the page folder when
// the entry has none.
func MainImageLink(e *domain.Entry) string {
	image := ""
	if values := e.Meta.Values(entryMainImage); len(values) > 0 {
		image = values[0]
	}
	return "pages/" + e.FileName + "/" + image
}

const entryMainImage = "main-image"
