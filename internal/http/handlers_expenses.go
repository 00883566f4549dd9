package http

import (
	"net/http"
	"time"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type expenseDTO struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	RawInput            string             `json:"rawInput,omitempty"`
	CategoryID          *string            `json:"categoryId"`
	BankAccountID       *string            `json:"bankAccountId"`
	Type                core.ExpenseType   `json:"type"`
	Status              core.ExpenseStatus `json:"status"`
	AmountCents         int64              `json:"amountCents"`
	Currency            string             `json:"currency"`
	AmountRefCents      int64              `json:"amountRefCents"`
	Date                string             `json:"date"`
	RecurringTemplateID *string            `json:"recurringTemplateId,omitempty"`
	IsRecurring         bool               `json:"isRecurring"`
	ExcludeFromBudget   bool               `json:"excludeFromBudget"`
	ProjectIDs          []string           `json:"projectIds"`
	CreatedAt           time.Time          `json:"createdAt"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:                  e.ID,
		Name:                e.Name,
		RawInput:            e.RawInput,
		CategoryID:          e.CategoryID,
		BankAccountID:       e.BankAccountID,
		Type:                e.Type,
		Status:              e.Status,
		AmountCents:         e.AmountCents,
		Currency:            e.Currency,
		AmountRefCents:      e.AmountRefCents,
		Date:                e.Date.Format("2006-01-02"),
		RecurringTemplateID: e.RecurringTemplateID,
		IsRecurring:         e.IsRecurring,
		ExcludeFromBudget:   e.ExcludeFromBudget,
		ProjectIDs:          e.ProjectIDs,
		CreatedAt:           e.CreatedAt,
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	filter := storage.ExpenseFilter{Year: year, Month: month}
	if v := r.URL.Query().Get("categoryId"); v != "" {
		filter.CategoryID = v
	}
	if v := r.URL.Query().Get("type"); v != "" {
		filter.Type = core.ExpenseType(v)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = core.ExpenseStatus(v)
	}

	expenses, err := s.repo.ListExpenses(r.Context(), rcFrom(r).WorkspaceID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]expenseDTO, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.repo.GetExpense(r.Context(), rcFrom(r).WorkspaceID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(expense))
}

type createExpenseRequest struct {
	Name              string             `json:"name"`
	Amount            string             `json:"amount"`
	Currency          string             `json:"currency"`
	ExchangeRate      decimal.Decimal    `json:"exchangeRate"`
	CategoryID        *string            `json:"categoryId"`
	BankAccountID     *string            `json:"bankAccountId"`
	Type              *core.ExpenseType  `json:"type"`
	Status            core.ExpenseStatus `json:"status"`
	Date              string             `json:"date"`
	ExcludeFromBudget bool               `json:"excludeFromBudget"`
	ProjectIDs        []string           `json:"projectIds"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	cents, err := core.ParseAmountToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			badRequest(w, "date must be YYYY-MM-DD")
			return
		}
	}

	rc := rcFrom(r)
	created, err := s.expenses.Create(r.Context(), rc, services.CreateExpenseInput{
		Name:              req.Name,
		CategoryID:        req.CategoryID,
		BankAccountID:     req.BankAccountID,
		Type:              req.Type,
		Status:            req.Status,
		AmountCents:       cents,
		Currency:          req.Currency,
		ExchangeRate:      req.ExchangeRate,
		Date:              date,
		ExcludeFromBudget: req.ExcludeFromBudget,
		ProjectIDs:        req.ProjectIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboards(rc.WorkspaceID)
	writeJSON(w, http.StatusCreated, toExpenseDTO(created))
}

type quickAddRequest struct {
	Text          string  `json:"text"`
	BankAccountID *string `json:"bankAccountId"`
}

func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	var req quickAddRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	rc := rcFrom(r)
	created, err := s.expenses.QuickAdd(r.Context(), rc, req.Text, req.BankAccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboards(rc.WorkspaceID)
	writeJSON(w, http.StatusCreated, toExpenseDTO(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateExpenseInput
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	rc := rcFrom(r)
	updated, err := s.expenses.Update(r.Context(), rc, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboards(rc.WorkspaceID)
	writeJSON(w, http.StatusOK, toExpenseDTO(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	rc := rcFrom(r)
	if err := s.expenses.Delete(r.Context(), rc, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboards(rc.WorkspaceID)
	w.WriteHeader(http.StatusNoContent)
}
