package http

import (
	"net/http"
	"time"

	"tally/internal/core"
	"tally/internal/services"

	"github.com/gorilla/mux"
)

type templateDTO struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	AmountCents   *int64           `json:"amountCents"`
	Currency      string           `json:"currency"`
	CategoryID    *string          `json:"categoryId"`
	ExpenseType   core.ExpenseType `json:"expenseType"`
	DayOfMonth    *int             `json:"dayOfMonth"`
	Active        bool             `json:"active"`
	LastGenerated *time.Time       `json:"lastGenerated"`
}

func toTemplateDTO(t core.RecurringTemplate) templateDTO {
	return templateDTO{
		ID:            t.ID,
		Name:          t.Name,
		AmountCents:   t.AmountCents,
		Currency:      t.Currency,
		CategoryID:    t.CategoryID,
		ExpenseType:   t.ExpenseType,
		DayOfMonth:    t.DayOfMonth,
		Active:        t.Active,
		LastGenerated: t.LastGenerated,
	}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.repo.ListTemplates(r.Context(), rcFrom(r).WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]templateDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type createTemplateRequest struct {
	Name        string           `json:"name"`
	Amount      *string          `json:"amount"`
	Currency    string           `json:"currency"`
	CategoryID  *string          `json:"categoryId"`
	ExpenseType core.ExpenseType `json:"expenseType"`
	DayOfMonth  *int             `json:"dayOfMonth"`
	Active      *bool            `json:"active"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	rc := rcFrom(r)
	template := core.RecurringTemplate{
		WorkspaceID: rc.WorkspaceID,
		Name:        req.Name,
		Currency:    req.Currency,
		CategoryID:  req.CategoryID,
		ExpenseType: req.ExpenseType,
		DayOfMonth:  req.DayOfMonth,
		Active:      true,
	}
	if req.Active != nil {
		template.Active = *req.Active
	}
	if req.Amount != nil {
		cents, err := core.ParseAmountToCents(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		template.AmountCents = &cents
	}
	if template.Currency == "" {
		ws, err := s.repo.GetWorkspace(r.Context(), rc.WorkspaceID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		template.Currency = ws.DefaultCurrency
	}
	if err := template.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.repo.CreateTemplate(r.Context(), template)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateDTO(created))
}

type updateTemplateRequest struct {
	Name        core.Patch[string]           `json:"name"`
	Amount      core.Patch[string]           `json:"amount"`
	Currency    core.Patch[string]           `json:"currency"`
	CategoryID  core.Patch[string]           `json:"categoryId"`
	ExpenseType core.Patch[core.ExpenseType] `json:"expenseType"`
	DayOfMonth  core.Patch[int]              `json:"dayOfMonth"`
	Active      core.Patch[bool]             `json:"active"`
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req updateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	rc := rcFrom(r)
	template, err := s.repo.GetTemplate(r.Context(), rc.WorkspaceID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	if v, ok := req.Name.Value(); ok {
		template.Name = v
	}
	switch {
	case req.Amount.IsSet():
		v, _ := req.Amount.Value()
		cents, err := core.ParseAmountToCents(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		template.AmountCents = &cents
	case req.Amount.IsClear():
		template.AmountCents = nil
	}
	if v, ok := req.Currency.Value(); ok {
		template.Currency = v
	}
	switch {
	case req.CategoryID.IsSet():
		v, _ := req.CategoryID.Value()
		template.CategoryID = &v
	case req.CategoryID.IsClear():
		template.CategoryID = nil
	}
	if v, ok := req.ExpenseType.Value(); ok {
		template.ExpenseType = v
	}
	switch {
	case req.DayOfMonth.IsSet():
		v, _ := req.DayOfMonth.Value()
		template.DayOfMonth = &v
	case req.DayOfMonth.IsClear():
		template.DayOfMonth = nil
	}
	if v, ok := req.Active.Value(); ok {
		template.Active = v
	}

	if err := template.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.repo.UpdateTemplate(r.Context(), template); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(template))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteTemplate(r.Context(), rcFrom(r).WorkspaceID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	Month             *int               `json:"month"`
	Year              *int               `json:"year"`
	TemplateIDs       []string           `json:"templateIds"`
	TemplateOverrides []templateOverride `json:"templateOverrides"`
}

type templateOverride struct {
	ID          string `json:"id"`
	DayOverride *int   `json:"dayOverride"`
}

type generateResponse struct {
	Success   bool   `json:"success"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Month     string `json:"month"`
	Message   string `json:"message"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
	}

	overrides := make([]services.TemplateOverride, 0, len(req.TemplateOverrides))
	for _, o := range req.TemplateOverrides {
		overrides = append(overrides, services.TemplateOverride{ID: o.ID, DayOverride: o.DayOverride})
	}

	rc := rcFrom(r)
	result, err := s.generator.Generate(r.Context(), rc, services.GenerateRequest{
		Month:       req.Month,
		Year:        req.Year,
		TemplateIDs: req.TemplateIDs,
		Overrides:   overrides,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboards(rc.WorkspaceID)
	writeJSON(w, http.StatusOK, generateResponse{
		Success:   true,
		Generated: result.Generated,
		Skipped:   result.Skipped,
		Month:     result.Month,
		Message:   result.Message,
	})
}
