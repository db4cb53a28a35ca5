package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/philackm/devlog/internal/build"
	"github.com/philackm/devlog/internal/domain"
	"github.com/philackm/devlog/internal/fetcher"
	"github.com/philackm/devlog/internal/logging"
	"github.com/philackm/devlog/internal/template"
)

// RunStore is the read side of the build-run log
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}

// Server serves the built site and a JSON API over the project entries
type Server struct {
	builder *build.Builder
	runs    RunStore
	logger  logging.Logger
	addr    string
}

// New creates a new API server. runs may be nil when run recording is off.
func New(b *build.Builder, runs RunStore, logger logging.Logger, addr string) *Server {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Server{builder: b, runs: runs, logger: logger, addr: addr}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Entries
	mux.HandleFunc("GET /api/entries", s.listEntries)
	mux.HandleFunc("GET /api/entries/{name}", s.getEntry)

	// Tags
	mux.HandleFunc("GET /api/tags", s.listTags)

	// Build runs
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)

	// Health check
	mux.HandleFunc("GET /api/health", s.health)

	// Built site
	mux.Handle("GET /", http.FileServer(http.Dir(s.builder.Layout().Output())))

	return withCORS(mux)
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.addr, "output", s.builder.Layout().Output())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EntrySummary is the API view of an entry
type EntrySummary struct {
	FileName      string      `json:"file_name"`
	Title         string      `json:"title,omitempty"`
	Date          string      `json:"date,omitempty"`
	FormattedDate string      `json:"formatted_date,omitempty"`
	View          string      `json:"view"`
	Tags          []string    `json:"tags,omitempty"`
	PageLink      string      `json:"page_link"`
	LastModified  time.Time   `json:"last_modified"`
	Meta          domain.Meta `json:"meta"`
}

// EntryDetail adds the readable text of the built page
type EntryDetail struct {
	EntrySummary
	Built bool   `json:"built"`
	Text  string `json:"text,omitempty"`
}

func summarize(e *domain.Entry) EntrySummary {
	sum := EntrySummary{
		FileName:     e.FileName,
		View:         string(template.SelectView(e.Meta)),
		Tags:         e.Meta.Values("tag"),
		PageLink:     template.PageLink(e),
		LastModified: e.LastModified,
		Meta:         e.Meta,
	}
	sum.Title, _ = e.Meta.First("title")
	sum.Date, _ = e.Meta.First("date")
	sum.FormattedDate, _ = template.FormattedDate(e.Meta)
	return sum
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, _, err := s.builder.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := len(entries)

	if offset > len(entries) {
		offset = len(entries)
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	summaries := make([]EntrySummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, summarize(e))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": summaries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	entries, _, err := s.builder.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	e := build.Find(entries, name)
	if e == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	detail := EntryDetail{EntrySummary: summarize(e)}
	page, err := os.ReadFile(s.builder.Layout().PagePath(e))
	switch {
	case err == nil:
		detail.Built = true
		detail.Text = fetcher.ExtractText(string(page))
	case !errors.Is(err, os.ErrNotExist):
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	entries, _, err := s.builder.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tags": build.CountTags(entries),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs := []domain.Run{}
	if s.runs != nil {
		found, err := s.runs.ListRuns(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		runs = append(runs, found...)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"limit": limit,
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run recording is disabled")
		return
	}

	run, err := s.runs.GetRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
