package http

import (
	"fmt"
	"net/http"
	"sort"

	"tally/internal/core"
)

type budgetResponse struct {
	Month          string                     `json:"month"`
	TotalCents     int64                      `json:"totalCents"`
	BudgetCents    *int64                     `json:"budgetCents"`
	RemainingCents *int64                     `json:"remainingCents"`
	SpendByType    map[core.ExpenseType]int64 `json:"spendByType"`
	Currency       string                     `json:"currency"`
}

func (s *Server) handleDashboardBudget(w http.ResponseWriter, r *http.Request) {
	rc := rcFrom(r)
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("budget:%s:%04d-%02d", rc.WorkspaceID, year, int(month))

	if cached, ok := s.budgetCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	ws, err := s.repo.GetWorkspace(r.Context(), rc.WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, byType, err := s.repo.MonthSpend(r.Context(), rc.WorkspaceID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := budgetResponse{
		Month:       core.MonthLabel(year, month),
		TotalCents:  total,
		BudgetCents: ws.MonthlyBudgetCents,
		SpendByType: byType,
		Currency:    ws.DefaultCurrency,
	}
	if ws.MonthlyBudgetCents != nil {
		remaining := *ws.MonthlyBudgetCents - total
		resp.RemainingCents = &remaining
	}

	s.budgetCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

type burnPoint struct {
	Day             int   `json:"day"`
	SpentCents      int64 `json:"spentCents"`
	CumulativeCents int64 `json:"cumulativeCents"`
}

type burnResponse struct {
	Month  string      `json:"month"`
	Points []burnPoint `json:"points"`
}

// handleDashboardBurn returns the cumulative per-day spend for a month,
// one point per day with activity.
func (s *Server) handleDashboardBurn(w http.ResponseWriter, r *http.Request) {
	rc := rcFrom(r)
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("burn:%s:%04d-%02d", rc.WorkspaceID, year, int(month))

	if cached, ok := s.burnCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	daily, err := s.repo.DailySpend(r.Context(), rc.WorkspaceID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	days := make([]int, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Ints(days)

	resp := burnResponse{Month: core.MonthLabel(year, month), Points: make([]burnPoint, 0, len(days))}
	var cumulative int64
	for _, day := range days {
		cumulative += daily[day]
		resp.Points = append(resp.Points, burnPoint{
			Day:             day,
			SpentCents:      daily[day],
			CumulativeCents: cumulative,
		})
	}

	s.burnCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}
