package domain

import "time"

// ViewKind selects which view template renders an entry
type ViewKind string

const (
	ViewVideo ViewKind = "video"
	ViewImage ViewKind = "image"
	ViewText  ViewKind = "text"
)

// Entry represents one journal item discovered on disk
type Entry struct {
	Path         string    `json:"path"`
	FileName     string    `json:"file_name"`
	LastModified time.Time `json:"last_modified"`
	Meta         Meta      `json:"meta"`
	Assets       []string  `json:"assets,omitempty"`

	// RenderedBody is only set for entries converted during the current build.
	RenderedBody string `json:"-"`
}

// Meta maps a metadata key to its values in source order
type Meta map[string][]string

// Add appends a value for key
func (m Meta) Add(key, value string) {
	m[key] = append(m[key], value)
}

// Values returns every value recorded for key
func (m Meta) Values(key string) []string {
	return m[key]
}

// Has reports whether key carries at least one value
func (m Meta) Has(key string) bool {
	return len(m[key]) > 0
}

// Contains reports whether value is among the values of key
func (m Meta) Contains(key, value string) bool {
	for _, v := range m[key] {
		if v == value {
			return true
		}
	}
	return false
}

// First returns the first value of key, or a MissingKeyError
func (m Meta) First(key string) (string, error) {
	values := m[key]
	if len(values) == 0 {
		return "", &MissingKeyError{Key: key}
	}
	return values[0], nil
}

// RunStatus is the outcome of a single entry in a build run
type RunStatus string

const (
	StatusBuilt     RunStatus = "built"
	StatusUnchanged RunStatus = "unchanged"
	StatusFailed    RunStatus = "failed"
	StatusSkipped   RunStatus = "skipped"
)

// EntryResult records what happened to one entry during a build
type EntryResult struct {
	Path     string    `json:"path"`
	FileName string    `json:"file_name,omitempty"`
	Status   RunStatus `json:"status"`
	Error    string    `json:"error,omitempty"`
	Hash     string    `json:"hash,omitempty"`
}

// Run is a recorded build invocation
type Run struct {
	ID          string        `json:"id"`
	Root        string        `json:"root"`
	Incremental bool          `json:"incremental"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	Built       int           `json:"built"`
	Unchanged   int           `json:"unchanged"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Results     []EntryResult `json:"results,omitempty"`
}
