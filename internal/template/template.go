package template

import (
	"regexp"
	"strings"
)

// Marker names are free-form like metadata keys, but stay on one line.
var markerPattern = regexp.MustCompile(`<= (.+?) =>`)

// Lookup resolves a placeholder name. ok=false leaves the marker in place;
// a non-nil error aborts the render.
type Lookup func(name string) (value string, ok bool, err error)

// Template is a parsed view: literal text interleaved with <= name => markers
type Template struct {
	Name     string
	segments []segment
}

type segment struct {
	text string // literal text, or the raw marker
	name string // empty for literals
}

// Parse splits text into literal and placeholder segments
func Parse(name, text string) *Template {
	t := &Template{Name: name}

	last := 0
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			t.segments = append(t.segments, segment{text: text[last:loc[0]]})
		}
		t.segments = append(t.segments, segment{
			text: text[loc[0]:loc[1]],
			name: text[loc[2]:loc[3]],
		})
		last = loc[1]
	}
	if last < len(text) {
		t.segments = append(t.segments, segment{text: text[last:]})
	}
	return t
}

// Has reports whether the template contains a marker for name
func (t *Template) Has(name string) bool {
	for _, s := range t.segments {
		if s.name == name {
			return true
		}
	}
	return false
}

// Render substitutes every marker through lookup. Each name is resolved once
// per render even when it appears several times.
func (t *Template) Render(lookup Lookup) (string, error) {
	resolved := map[string]*string{}

	var b strings.Builder
	for _, s := range t.segments {
		if s.name == "" {
			b.WriteString(s.text)
			continue
		}

		value, done := resolved[s.name]
		if !done {
			v, ok, err := lookup(s.name)
			if err != nil {
				return "", err
			}
			if ok {
				value = &v
			}
			resolved[s.name] = value
		}

		if value == nil {
			b.WriteString(s.text)
		} else {
			b.WriteString(*value)
		}
	}
	return b.String(), nil
}
