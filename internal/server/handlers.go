package server

import (
	"net/http"
	"runtime"
	"time"

	"stockintel/internal/common"
	"stockintel/internal/models"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/providers", s.handleProviders)

	// Intelligence
	mux.HandleFunc("/api/intelligence/", s.handleIntelligence)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"version":     common.GetVersion(),
		"environment": s.app.Config.Environment,
		"uptime":      time.Since(s.app.StartupTime).Round(time.Second).String(),
		"goroutines":  runtime.NumGoroutine(),
	})
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleProviders handles GET /api/providers — per-provider call counters
// and quota state.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"providers": s.app.ProviderStats(),
	})
}

// handleIntelligence handles GET /api/intelligence/{symbol}
func (s *Server) handleIntelligence(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/intelligence/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	report, err := s.app.Intel.GetIntelligence(r.Context(), symbol)
	if err != nil {
		if models.IsNotFound(err) {
			WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "SYMBOL_NOT_FOUND")
			return
		}
		s.logger.Error().Str("symbol", symbol).Err(err).Msg("Intelligence request failed")
		WriteError(w, http.StatusBadGateway, "Failed to generate intelligence report: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, report)
}
