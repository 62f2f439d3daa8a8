package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
)

// envelope is the JSON shape of every API response. Warnings carry the
// data-quality issues of the last load, they never fail a request.
type envelope struct {
	Data     interface{}   `json:"data"`
	Warnings core.Warnings `json:"warnings,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}, warnings core.Warnings) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data, Warnings: warnings}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parsePeriodParam reads the "period" query parameter. Empty means all
// periods (zero value).
func parsePeriodParam(r *http.Request) (core.Period, error) {
	v := strings.TrimSpace(r.URL.Query().Get("period"))
	if v == "" {
		return core.Period{}, nil
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid period %q", v)
	}
	return p, nil
}

// parseDeptParam reads the "dept" query parameter. Empty means the
// company-wide aggregate (DeptAll).
func parseDeptParam(r *http.Request) (core.Department, error) {
	v := strings.TrimSpace(r.URL.Query().Get("dept"))
	if v == "" {
		return core.DeptAll, nil
	}
	code, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid department %q", v)
	}
	d, err := core.ParseDepartment(code)
	if err != nil {
		return 0, fmt.Errorf("unknown department %d", code)
	}
	return d, nil
}

// parseDeptsParam reads "dept" as a comma-separated list. Empty means all
// departments.
func parseDeptsParam(r *http.Request) ([]core.Department, error) {
	v := strings.TrimSpace(r.URL.Query().Get("dept"))
	if v == "" {
		return nil, nil
	}
	var out []core.Department
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid department %q", part)
		}
		d, err := core.ParseDepartment(code)
		if err != nil {
			return nil, fmt.Errorf("unknown department %d", code)
		}
		out = append(out, d)
	}
	return out, nil
}

// parseSheetParam reads the "sheet" query parameter, defaulting to the
// profit-and-loss main sheet.
func parseSheetParam(r *http.Request) (core.ReportSheet, error) {
	v := strings.TrimSpace(r.URL.Query().Get("sheet"))
	if v == "" {
		return core.SheetMain, nil
	}
	switch v {
	case "0", "main":
		return core.SheetMain, nil
	case "1", "cost":
		return core.SheetCostBreakdown, nil
	}
	return 0, fmt.Errorf("invalid sheet %q", v)
}
