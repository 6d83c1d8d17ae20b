// Package api serves the assembled reports as read-only JSON
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"unilib/internal/analytics"
	"unilib/internal/report"
)

// ReportSource builds reports for an as-of instant
type ReportSource interface {
	Build(ctx context.Context, asOf time.Time) (*report.Reports, error)
	SubjectRanking(ctx context.Context, asOf time.Time, filter analytics.SubjectFilter) (analytics.SubjectRanking, error)
}

// Options configures the HTTP surface
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int

	// RequireAuth demands Telegram Mini App init data signed with BotToken
	// from one of AllowedUserIDs on every /api request
	RequireAuth    bool
	BotToken       string
	AllowedUserIDs []int64
}

// Server handles the report API
type Server struct {
	source  ReportSource
	logger  *zap.Logger
	limiter *ipLimiter
	auth    *initDataValidator
	now     func() time.Time
}

// NewServer creates a new API server
func NewServer(source ReportSource, logger *zap.Logger, opts Options) *Server {
	s := &Server{
		source:  source,
		logger:  logger,
		limiter: newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		now:     time.Now,
	}
	if opts.RequireAuth {
		s.auth = newInitDataValidator(opts.BotToken, opts.AllowedUserIDs)
	}
	return s
}

// RegisterRoutes registers the API routes on the provided mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /api/reports", s.protect(s.handleReports))
	mux.Handle("GET /api/reports/{name}", s.protect(s.handleSection))
	mux.Handle("GET /api/rankings/subjects", s.protect(s.handleSubjectRanking))
	mux.Handle("GET /api/patrons", s.protect(s.listing("patrons", func(r *report.Reports) any { return r.Patrons })))
	mux.Handle("GET /api/books", s.protect(s.listing("books", func(r *report.Reports) any { return r.Books })))
}

// protect wraps an API handler with panic recovery, rate limiting and auth
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	var next http.Handler = h
	if s.auth != nil {
		next = s.authMiddleware(next)
	}
	return s.recoverPanic(s.rateLimit(next))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// handleReports returns every section of one build
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.readAsOf(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	reports, err := s.source.Build(r.Context(), asOf)
	if err != nil {
		s.buildErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, envelope{"reports": reports})
}

// handleSection returns one named section
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !knownSection(name) {
		s.notFoundResponse(w, r)
		return
	}

	asOf, err := s.readAsOf(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	reports, err := s.source.Build(r.Context(), asOf)
	if err != nil {
		s.buildErrorResponse(w, r, err)
		return
	}

	payload, _ := reports.Section(name)
	s.writeJSON(w, r, http.StatusOK, envelope{
		"build_id": reports.BuildID,
		"as_of":    reports.AsOf,
		"report":   name,
		"data":     payload,
	})
}

// handleSubjectRanking ranks books within subjects.
// ?subject=<id> keeps books carrying that subject, ?subject=none keeps
// books carrying no subject, no parameter ranks every partition.
func (s *Server) handleSubjectRanking(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.readAsOf(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	filter, err := readSubjectFilter(r.URL.Query().Get("subject"))
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	ranking, err := s.source.SubjectRanking(r.Context(), asOf, filter)
	if err != nil {
		s.buildErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, envelope{"as_of": asOf, "ranking": ranking})
}

// listing serves one directory of a build under key
func (s *Server) listing(key string, pick func(*report.Reports) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := s.readAsOf(r)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		reports, err := s.source.Build(r.Context(), asOf)
		if err != nil {
			s.buildErrorResponse(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, envelope{"as_of": reports.AsOf, key: pick(reports)})
	}
}

func knownSection(name string) bool {
	for _, n := range report.SectionNames {
		if n == name {
			return true
		}
	}
	return false
}

// readAsOf parses ?as_of=YYYY-MM-DD as midnight UTC of that date;
// a missing value means today
func (s *Server) readAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		now := s.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	asOf, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of must be YYYY-MM-DD", analytics.ErrInvalidAsOf)
	}
	return asOf, nil
}

func readSubjectFilter(raw string) (analytics.SubjectFilter, error) {
	switch raw {
	case "":
		return analytics.AllSubjects(), nil
	case "none":
		return analytics.WithoutSubject(), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return analytics.SubjectFilter{}, errors.New("subject must be a subject id or none")
	}
	return analytics.OnlySubject(id), nil
}
