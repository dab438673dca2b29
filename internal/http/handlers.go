package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"fust/internal/core"
	applog "fust/internal/log"
	"fust/internal/ports"
)

// appMetrics counts ledger writes since startup.
type appMetrics struct {
	startedAt       time.Time
	partijenCreated atomic.Int64
	mutatiesCreated atomic.Int64
	csvImports      atomic.Int64
	csvRowsImported atomic.Int64
	createFailures  atomic.Int64
}

var templateFuncs = template.FuncMap{
	"naam": func(n *string) string {
		if n == nil {
			return ""
		}
		return *n
	},
}

// indexData feeds templates/index.html.
type indexData struct {
	Today     string
	Partijen  []core.Partij
	Overzicht []core.Balance
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports 503 until templates are parsed and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if pinger, ok := s.ledger.(ports.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics exposes the write counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	counters := []struct {
		name, help string
		value      int64
	}{
		{"fust_partijen_created_total", "Counterparties registered.", s.metrics.partijenCreated.Load()},
		{"fust_mutaties_created_total", "Movements recorded through the API.", s.metrics.mutatiesCreated.Load()},
		{"fust_csv_imports_total", "CSV files imported.", s.metrics.csvImports.Load()},
		{"fust_csv_rows_imported_total", "Movements recorded from CSV files.", s.metrics.csvRowsImported.Load()},
		{"fust_create_failures_total", "Rejected create requests.", s.metrics.createFailures.Load()},
	}
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.value)
	}
	if s.limiter != nil {
		fmt.Fprintf(w, "# HELP fust_rate_limited_total Writes refused by the rate limiter.\n# TYPE fust_rate_limited_total counter\nfust_rate_limited_total %d\n",
			s.limiter.Rejected())
	}
	fmt.Fprintf(w, "# HELP fust_uptime_seconds Seconds since the server started.\n# TYPE fust_uptime_seconds gauge\nfust_uptime_seconds %d\n",
		int64(time.Since(s.metrics.startedAt).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := indexData{Today: time.Now().Format(core.DateLayout)}

	// The page still renders when the store is unavailable; the script
	// reloads the tables from the API.
	if partijen, err := s.ledger.ListPartijen(ctx); err != nil {
		logger.ErrorContext(ctx, "Partijen list error", applog.FieldError, err)
	} else {
		data.Partijen = partijen
	}
	if overzicht, err := s.ledger.Overzicht(ctx); err != nil {
		logger.ErrorContext(ctx, "Overzicht error", applog.FieldError, err)
	} else {
		data.Overzicht = overzicht
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.ErrorContext(ctx, "Index template execution failed", applog.FieldError, err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
