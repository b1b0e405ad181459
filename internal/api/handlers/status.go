// Package handlers holds the status API endpoint implementations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alext/moneyrobot/internal/scheduler"
	"github.com/alext/moneyrobot/pkg/logger"
)

// Pinger checks warehouse connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TableLister lists warehouse tables under a name prefix.
type TableLister interface {
	ListTables(ctx context.Context, prefix string) ([]string, error)
}

// StatusHandler serves operational visibility over the pipeline: warehouse
// reachability, produced tables and scheduled job outcomes.
type StatusHandler struct {
	db     Pinger
	tables TableLister
	sched  *scheduler.Scheduler
	logger *logger.Logger
}

// NewStatusHandler creates a status handler. sched may be nil when the
// process runs without the scheduler.
func NewStatusHandler(db Pinger, tables TableLister, sched *scheduler.Scheduler, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		tables: tables,
		sched:  sched,
		logger: log,
	}
}

// GetHealth reports process and warehouse health
// GET /health
func (h *StatusHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	warehouseStatus := "ok"
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.logger.WithError(err).Error("Warehouse ping failed")
		warehouseStatus = "unreachable"
		code = http.StatusServiceUnavailable
	}

	// The process itself is serving; the warehouse field carries the
	// dependency state.
	respondJSON(w, code, map[string]interface{}{
		"status":    "ok",
		"service":   "moneyrobot-api",
		"warehouse": warehouseStatus,
	})
}

// GetTables lists the produced warehouse tables
// GET /api/tables?prefix=ALEXT
func (h *StatusHandler) GetTables(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		respondError(w, http.StatusBadRequest, "prefix query parameter is required")
		return
	}

	tables, err := h.tables.ListTables(r.Context(), prefix)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tables")
		respondError(w, http.StatusInternalServerError, "Failed to list tables")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"prefix": prefix,
		"count":  len(tables),
		"tables": tables,
	})
}

// GetJobs reports scheduled job statistics
// GET /api/jobs
func (h *StatusHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		respondError(w, http.StatusNotFound, "scheduler is not running in this process")
		return
	}

	respondJSON(w, http.StatusOK, h.sched.GetJobStats())
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
