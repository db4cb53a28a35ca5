package build

import (
	"sort"

	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/entry"
)

// Entries discovers the project entries without building them. Dated entries
// come first in index order, followed by undated ones in discovery order.
func (b *Builder) Entries() ([]*domain.Entry, []*entry.SkipError, error) {
	entries, skipped, err := entry.Discover(b.layout.Entries(), b.parser, b.layout.EntryExtension, b.layout.AssetExtensions)
	if err != nil {
		return nil, nil, err
	}

	sorted, undated := SortByDate(entries)
	for _, e := range entries {
		if _, ok := undated[e]; ok {
			sorted = append(sorted, e)
		}
	}
	return sorted, skipped, nil
}

// Find returns the entry whose file name is name
func Find(entries []*domain.Entry, name string) *domain.Entry {
	for _, e := range entries {
		if e.FileName == name {
			return e
		}
	}
	return nil
}

// TagCount is the number of entries carrying a tag
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CountTags tallies tag values across entries, most used first
func CountTags(entries []*domain.Entry) []TagCount {
	counts := map[string]int{}
	for _, e := range entries {
		seen := map[string]bool{}
		for _, tag := range e.Meta.Values("tag") {
			if !seen[tag] {
				seen[tag] = true
				counts[tag]++
			}
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags
}
