package api

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"unilib/internal/analytics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the top-level JSON object of every response
type envelope map[string]any

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data envelope) {
	js, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err), zap.String("path", r.URL.Path))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, envelope{"error": message})
}

func (s *Server) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (s *Server) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusNotFound, "the requested report does not exist")
}

func (s *Server) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("Request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	s.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

// buildErrorResponse maps report build failures to status codes
func (s *Server) buildErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidAsOf):
		s.badRequestResponse(w, r, err)
	case errors.Is(err, analytics.ErrDataIntegrity):
		s.logger.Warn("Ledger failed integrity checks", zap.Error(err))
		s.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away, nothing to send
		s.logger.Debug("Request cancelled", zap.String("path", r.URL.Path))
	default:
		s.serverErrorResponse(w, r, err)
	}
}
