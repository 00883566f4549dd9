package http

import (
	"net/http"

	"tally/internal/core"
)

type workspaceDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	MonthlyBudgetCents *int64 `json:"monthlyBudgetCents"`
	DefaultCurrency    string `json:"defaultCurrency"`
}

func toWorkspaceDTO(ws core.Workspace) workspaceDTO {
	return workspaceDTO{
		ID:                 ws.ID,
		Name:               ws.Name,
		MonthlyBudgetCents: ws.MonthlyBudgetCents,
		DefaultCurrency:    ws.DefaultCurrency,
	}
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.repo.GetWorkspace(r.Context(), rcFrom(r).WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkspaceDTO(ws))
}

type updateWorkspaceRequest struct {
	Name               core.Patch[string] `json:"name"`
	MonthlyBudgetCents core.Patch[int64]  `json:"monthlyBudgetCents"`
	DefaultCurrency    core.Patch[string] `json:"defaultCurrency"`
}

func (s *Server) handleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req updateWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	rc := rcFrom(r)
	ws, err := s.repo.GetWorkspace(r.Context(), rc.WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if v, ok := req.Name.Value(); ok {
		ws.Name = v
	}
	switch {
	case req.MonthlyBudgetCents.IsSet():
		v, _ := req.MonthlyBudgetCents.Value()
		ws.MonthlyBudgetCents = &v
	case req.MonthlyBudgetCents.IsClear():
		ws.MonthlyBudgetCents = nil
	}
	if v, ok := req.DefaultCurrency.Value(); ok {
		ws.DefaultCurrency = v
	}

	if ws.Name == "" {
		writeError(w, r, core.ErrEmptyName)
		return
	}

	if err := s.repo.UpdateWorkspace(r.Context(), ws); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboards(rc.WorkspaceID)
	writeJSON(w, http.StatusOK, toWorkspaceDTO(ws))
}
