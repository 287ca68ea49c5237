package http

import (
	"net/http"
	"strconv"
	"strings"

	"budgetbolt/internal/log"
	"budgetbolt/internal/reports"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.reports.Dashboard(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(d).Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ym, err := ParseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.reports.MonthlyReport(r.Context(), ownerID, ym.Year, ym.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(report).Write(w)
}

// handleRequestExport queues the monthly report for the spreadsheet export
// worker and answers 202 without waiting for it.
func (s *Server) handleRequestExport(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ym, err := ParseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := s.ledger.RequestExport(r.Context(), ownerID, ym.Year, ym.Month)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Export request refused",
			log.FieldOperation, log.OpExport,
			log.FieldYear, ym.Year,
			log.FieldMonth, ym.Month,
			log.FieldError, err.Error())
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(map[string]any{
		"status":       "queued",
		"year":         req.Year,
		"month":        req.Month,
		"requested_at": req.RequestedAt,
	}).Write(w)
}

func (s *Server) handleExpenseBreakdown(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.reports.ExpenseBreakdown(r.Context(), ownerID, rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(rows).Write(w)
}

func (s *Server) handleIncomeTrends(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months := reports.DefaultTrendMonths
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, r, badRequest("months must be an integer"))
			return
		}
	}
	points, err := s.reports.IncomeTrend(r.Context(), ownerID, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(points).Write(w)
}

func (s *Server) handleProjectProfitability(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.reports.Profitability(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeProjectError(w, r, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleProjectsProfitability(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	all, err := s.reports.ProjectsProfitability(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(all).Write(w)
}
