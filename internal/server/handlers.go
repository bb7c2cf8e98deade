package server

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mkamal/stockaudit/internal/audit"
	"github.com/mkamal/stockaudit/internal/database"
	"github.com/mkamal/stockaudit/internal/extraction"
	"github.com/mkamal/stockaudit/internal/pipeline"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "stockaudit",
		"version": "1.0.0",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// auditRequest is the POST /api/audit body. Text and Document are
// mutually exclusive; Document is base64-encoded.
type auditRequest struct {
	Text     string `json:"text"`
	Document string `json:"document"`
	MIMEType string `json:"mime_type"`
}

// handleAudit runs a full audit pass over pasted text or an uploaded document.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Text == "" && req.Document == "" {
		s.writeError(w, http.StatusBadRequest, "either text or document is required")
		return
	}
	if req.Text != "" && req.Document != "" {
		s.writeError(w, http.StatusBadRequest, "text and document are mutually exclusive")
		return
	}

	in := pipeline.Input{Text: req.Text}
	if req.Document != "" {
		doc, err := base64.StdEncoding.DecodeString(req.Document)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "document must be base64-encoded")
			return
		}
		in = pipeline.Input{Document: doc, MIMEType: req.MIMEType}
	}

	outcome, err := s.pipeline.Run(r.Context(), in)
	if err != nil {
		if errors.Is(err, extraction.ErrNoRecords) {
			s.writeError(w, http.StatusUnprocessableEntity, "no security records found in input")
			return
		}
		s.log.Error().Err(err).Msg("Audit run failed")
		s.writeError(w, http.StatusBadGateway, "audit failed: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, outcome)
}

// handleLatest returns the most recent completed run.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest := s.pipeline.Latest()
	if latest == nil {
		s.writeError(w, http.StatusNotFound, "no audit run completed yet")
		return
	}

	s.writeJSON(w, http.StatusOK, latest)
}

// handleListRuns lists stored runs, newest first. Supports ?limit=N.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun returns one stored run with its full results.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.runs.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to load run")
		s.writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// handleDeleteRun deletes one stored run.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.runs.DeleteRun(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to delete run")
		s.writeError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// handleProfiles lists the available scoring profiles.
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":   s.profile,
		"profiles": audit.Profiles(),
	})
}

// handleSystemStatus reports process and host health.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuUsage, ramUsage := s.systemStats()

	databases := map[string]string{}
	for name, db := range map[string]*database.DB{
		"history": s.historyDB,
		"cache":   s.cacheDB,
	} {
		if db == nil {
			databases[name] = "not configured"
			continue
		}
		if err := db.QuickCheck(r.Context()); err != nil {
			databases[name] = "error: " + err.Error()
			continue
		}
		databases[name] = "ok"
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"cpu_percent":    cpuUsage,
		"ram_percent":    ramUsage,
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
		"databases":      databases,
	})
}

// systemStats collects CPU and RAM usage. A 100ms sample keeps the
// endpoint responsive while still giving a usable reading.
func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
