package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/risk"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "vine",
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Dashboard(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, out, err)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Analytics(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, out, err)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Export(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, out, err)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Portfolio(r.Context())
	s.respond(w, r, out, err)
}

// handleRiskSuggestions accepts an optional current_risk query parameter.
func (s *Server) handleRiskSuggestions(w http.ResponseWriter, r *http.Request) {
	var current float64
	if v := r.URL.Query().Get("current_risk"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 100 {
			s.respond(w, r, nil, errs.Validation("current_risk", "must be a percentage, got %q", v))
			return
		}
		current = f
	}
	out, err := s.svc.RiskSuggestions(r.Context(), chi.URLParam(r, "id"), current)
	s.respond(w, r, out, err)
}

func (s *Server) handlePositionSize(w http.ResponseWriter, r *http.Request) {
	var in risk.PositionInput
	if err := decode(w, r, &in); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	out, err := s.svc.PositionSize(in)
	s.respond(w, r, out, err)
}

func (s *Server) handleForexLotSize(w http.ResponseWriter, r *http.Request) {
	var in risk.ForexInput
	if err := decode(w, r, &in); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	out, err := s.svc.ForexLotSize(r.Context(), in)
	s.respond(w, r, out, err)
}

func (s *Server) handleStockShares(w http.ResponseWriter, r *http.Request) {
	var in risk.SharesInput
	if err := decode(w, r, &in); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	out, err := s.svc.StockShares(in)
	s.respond(w, r, out, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return errs.Validation("body", "%v", err)
	}
	return nil
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidRisk):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnsupportedPair), errors.Is(err, errs.ErrConversion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, out any, err error) {
	if err != nil {
		status := StatusFor(err)
		if status >= 500 {
			s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
