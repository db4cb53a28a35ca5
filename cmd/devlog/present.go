package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/philackm/devlog/internal/build"
	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/template"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	titleCaser = cases.Title(language.English)
)

// displayTitle falls back to the file name, "first-post" -> "First Post"
func displayTitle(e *domain.Entry) string {
	if title, err := e.Meta.First("title"); err == nil && title != "" {
		return title
	}
	name := strings.NewReplacer("-", " ", "_", " ").Replace(e.FileName)
	return titleCaser.String(name)
}

// filterEntries keeps entries whose title, file name or tags fuzzy match
// query, best match first.
func filterEntries(entries []*domain.Entry, query string) []*domain.Entry {
	haystack := make([]string, len(entries))
	for i, e := range entries {
		haystack[i] = displayTitle(e) + " " + e.FileName + " " + strings.Join(e.Meta.Values("tag"), " ")
	}

	matches := fuzzy.Find(query, haystack)
	out := make([]*domain.Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

func renderEntryList(entries []*domain.Entry) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render(fmt.Sprintf("%d entries", len(entries))))
	sb.WriteString("\n")

	for _, e := range entries {
		date := "undated"
		if d, err := template.FormattedDate(e.Meta); err == nil {
			date = d
		}
		sb.WriteString(dateStyle.Render(fmt.Sprintf("%-14s", date)))
		sb.WriteString("  ")
		sb.WriteString(nameStyle.Render(fmt.Sprintf("%-20s", e.FileName)))
		sb.WriteString("  ")
		sb.WriteString(displayTitle(e))
		if tags := e.Meta.Values("tag"); len(tags) > 0 {
			sb.WriteString("  ")
			sb.WriteString(tagStyle.Render(strings.Join(tags, ", ")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderEntry(e *domain.Entry, body string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	out, err := r.Render(body)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", e.FileName, err)
	}

	var sb strings.Builder
	sb.WriteString(headingStyle.Render(displayTitle(e)))
	sb.WriteString("\n")
	if date, err := template.FormattedDate(e.Meta); err == nil {
		sb.WriteString(dateStyle.Render(date))
		sb.WriteString("\n")
	}
	sb.WriteString(out)
	return sb.String(), nil
}

func renderTags(tags []build.TagCount) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Tags"))
	sb.WriteString("\n")
	for _, t := range tags {
		fmt.Fprintf(&sb, "  %s %s\n", tagStyle.Render(t.Tag), dateStyle.Render(fmt.Sprintf("(%d)", t.Count)))
	}
	return sb.String()
}

func renderRuns(runs []domain.Run) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Recent builds"))
	sb.WriteString("\n")
	for _, r := range runs {
		mode := "full"
		if r.Incremental {
			mode = "incremental"
		}
		fmt.Fprintf(&sb, "%s  %s  %-11s  built %d, unchanged %d, ",
			shortID(r.ID), dateStyle.Render(r.StartedAt.Format("2006-01-02 15:04:05")), mode, r.Built, r.Unchanged)
		failed := fmt.Sprintf("failed %d", r.Failed)
		if r.Failed > 0 {
			failed = failedStyle.Render(failed)
		}
		fmt.Fprintf(&sb, "%s, skipped %d\n", failed, r.Skipped)
	}
	return sb.String()
}

func renderRun(run *domain.Run) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Build " + run.ID))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Root:    %s\n", run.Root)
	fmt.Fprintf(&sb, "Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Fprintf(&sb, "Took:    %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	for _, r := range run.Results {
		status := string(r.Status)
		if r.Status == domain.StatusFailed || r.Status == domain.StatusSkipped {
			status = failedStyle.Render(status)
		}
		name := r.FileName
		if name == "" {
			name = r.Path
		}
		fmt.Fprintf(&sb, "  %-10s %s", status, name)
		if r.Error != "" {
			fmt.Fprintf(&sb, ": %s", r.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderEntryHistory(e *domain.Entry, results []domain.EntryResult) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Builds of " + displayTitle(e)))
	sb.WriteString("\n")
	for _, r := range results {
		status := string(r.Status)
		if r.Status == domain.StatusFailed || r.Status == domain.StatusSkipped {
			status = failedStyle.Render(status)
		}
		fmt.Fprintf(&sb, "  %-10s %s", status, dateStyle.Render(r.Hash))
		if r.Error != "" {
			fmt.Fprintf(&sb, " %s", r.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
