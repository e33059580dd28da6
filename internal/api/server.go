// Package api serves stored session history over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/banshee-data/posture.report/internal/db"
	"github.com/banshee-data/posture.report/internal/httputil"
	"github.com/banshee-data/posture.report/internal/report"
	"github.com/banshee-data/posture.report/internal/session"
	"github.com/banshee-data/posture.report/internal/version"
)

// maxSummaryBytes bounds uploaded summaries; a long session's timeline is
// the bulk of it.
const maxSummaryBytes = 16 << 20

// Store is the session persistence the server reads and writes.
type Store interface {
	SaveSummary(ctx context.Context, s session.Summary) error
	ListSessions(ctx context.Context, f db.SessionFilter) ([]db.SessionRecord, error)
	GetSession(ctx context.Context, id string) (session.Summary, error)
	DeleteSession(ctx context.Context, id string) error
}

type Server struct {
	store      Store
	activities []string
}

// NewServer serves store. activities lists the names the coach accepts and
// is reported by /api/activities.
func NewServer(store Store, activities []string) *Server {
	return &Server{store: store, activities: activities}
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.deleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/report.html", s.sessionHTML)
	mux.HandleFunc("GET /api/sessions/{id}/timeline.png", s.sessionPNG)
	mux.HandleFunc("GET /api/activities", s.listActivities)
	mux.HandleFunc("GET /api/version", s.showVersion)
	return mux
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", 0, 1)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	f := db.SessionFilter{Activity: r.URL.Query().Get("activity"), Limit: limit}
	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			httputil.BadRequest(w, "invalid 'since' parameter, want RFC3339")
			return
		}
		f.Since = t
	}

	records, err := s.store.ListSessions(r.Context(), f)
	if err != nil {
		httputil.InternalServerError(w, "failed to list sessions")
		logf("list sessions: %v", err)
		return
	}
	if records == nil {
		records = []db.SessionRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var sum session.Summary
	if err := httputil.DecodeJSON(w, r, &sum, maxSummaryBytes); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if sum.SessionID == "" || sum.Activity == "" {
		httputil.BadRequest(w, "session_id and activity are required")
		return
	}
	if err := s.store.SaveSummary(r.Context(), sum); err != nil {
		httputil.InternalServerError(w, "failed to save session")
		logf("save session %s: %v", sum.SessionID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"session_id": sum.SessionID})
}

// lookup writes the error response itself and reports whether to continue.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (session.Summary, bool) {
	id := r.PathValue("id")
	sum, err := s.store.GetSession(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrSessionNotFound):
		httputil.NotFound(w, "session not found")
		return sum, false
	case err != nil:
		httputil.InternalServerError(w, "failed to read session")
		logf("get session %s: %v", id, err)
		return sum, false
	}
	return sum, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if sum, ok := s.lookup(w, r); ok {
		httputil.WriteJSON(w, http.StatusOK, sum)
	}
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteSession(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, db.ErrSessionNotFound):
		httputil.NotFound(w, "session not found")
	case err != nil:
		httputil.InternalServerError(w, "failed to delete session")
		logf("delete session: %v", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) sessionHTML(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(w, sum); err != nil {
		logf("render html for %s: %v", sum.SessionID, err)
	}
}

func (s *Server) sessionPNG(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := report.PlotTimeline(w, sum); err != nil {
		logf("plot timeline for %s: %v", sum.SessionID, err)
	}
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	names := s.activities
	if names == nil {
		names = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, names)
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}
