package http

import (
	"log/slog"
	"net/http"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.reports.LoadedAt().IsZero() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handlePeriods lists the loaded accounting periods in chronological order.
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	periods := s.reports.Periods()
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.String())
	}
	respondJSON(w, http.StatusOK, out, nil)
}

type departmentInfo struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// handleDepartments lists the known departments with display names.
func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	out := make([]departmentInfo, 0, len(core.Departments()))
	for _, d := range core.Departments() {
		out = append(out, departmentInfo{Code: int(d), Name: s.reports.DeptName(d)})
	}
	respondJSON(w, http.StatusOK, out, nil)
}

// handleSummary returns the per-department summary table. Query parameters:
// period (optional, default latest), dept (optional comma-separated codes,
// default all).
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	period, err := s.resolvePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	depts, err := parseDeptsParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, warnings := s.reports.Summaries(depts, period)
	respondJSON(w, http.StatusOK, rows, warnings)
}

// handleKPI returns the company-wide aggregate for one period.
func (s *Server) handleKPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	period, err := s.resolvePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, ok := s.reports.Company(period)
	if !ok {
		respondError(w, http.StatusNotFound, "no data for period")
		return
	}
	respondJSON(w, http.StatusOK, summary, nil)
}

// handleCostStructure returns the manufacturing cost split for a department.
func (s *Server) handleCostStructure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	period, err := s.resolvePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dept, err := parseDeptParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cs := s.reports.CostStructure(dept, period)
	respondJSON(w, http.StatusOK, cs, nil)
}

// handleSGA returns the SG&A detail accounts for a department, largest first.
func (s *Server) handleSGA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	period, err := s.resolvePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dept, err := parseDeptParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := s.reports.SGABreakdown(dept, period)
	respondJSON(w, http.StatusOK, rows, nil)
}

// handleDetails returns raw ledger rows for drill-down views.
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	period, err := s.resolvePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dept, err := parseDeptParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sheet, err := parseSheetParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := s.reports.Details(dept, period, sheet)
	respondJSON(w, http.StatusOK, rows, nil)
}

// handleLoadRuns lists recent journal entries.
func (s *Server) handleLoadRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	runs, err := s.reports.LoadRuns(r.Context(), 50)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list load runs", "error", err)
		respondError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	respondJSON(w, http.StatusOK, runs, nil)
}

// handleReload re-reads the CSV directory and swaps the datasets.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	n, warnings, err := s.reports.Reload(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Reload failed", "error", err)
		respondError(w, http.StatusInternalServerError, "reload failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"periods": n}, warnings)
}

// handleExport queues a summary export for one period.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	period, err := s.resolvePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if period.IsZero() {
		respondError(w, http.StatusBadRequest, "no period loaded")
		return
	}

	if err := s.reports.RequestExport(r.Context(), period); err != nil {
		slog.ErrorContext(r.Context(), "Export request failed",
			"period", period.String(), "error", err)
		respondError(w, http.StatusServiceUnavailable, "export unavailable")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"period": period.String()}, nil)
}

// resolvePeriod parses the period parameter, falling back to the latest
// loaded period when absent.
func (s *Server) resolvePeriod(r *http.Request) (core.Period, error) {
	period, err := parsePeriodParam(r)
	if err != nil {
		return core.Period{}, err
	}
	if !period.IsZero() {
		return period, nil
	}
	periods := s.reports.Periods()
	if len(periods) == 0 {
		return core.Period{}, nil
	}
	return periods[len(periods)-1], nil
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}
