package http

import (
	"net/http"

	"tally/internal/core"

	"github.com/gorilla/mux"
)

type bankAccountDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Institution string `json:"institution"`
	Currency    string `json:"currency"`
}

func toBankAccountDTO(a core.BankAccount) bankAccountDTO {
	return bankAccountDTO{ID: a.ID, Name: a.Name, Institution: a.Institution, Currency: a.Currency}
}

func (s *Server) handleListBankAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.ListBankAccounts(r.Context(), rcFrom(r).WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]bankAccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toBankAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

type bankAccountRequest struct {
	Name        string `json:"name"`
	Institution string `json:"institution"`
	Currency    string `json:"currency"`
}

func (s *Server) handleCreateBankAccount(w http.ResponseWriter, r *http.Request) {
	var req bankAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	account := core.BankAccount{
		WorkspaceID: rcFrom(r).WorkspaceID,
		Name:        req.Name,
		Institution: req.Institution,
		Currency:    req.Currency,
	}
	if err := account.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.repo.CreateBankAccount(r.Context(), account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBankAccountDTO(created))
}

func (s *Server) handleUpdateBankAccount(w http.ResponseWriter, r *http.Request) {
	var req bankAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	account := core.BankAccount{
		ID:          mux.Vars(r)["id"],
		WorkspaceID: rcFrom(r).WorkspaceID,
		Name:        req.Name,
		Institution: req.Institution,
		Currency:    req.Currency,
	}
	if err := account.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.repo.UpdateBankAccount(r.Context(), account); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBankAccountDTO(account))
}

func (s *Server) handleDeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteBankAccount(r.Context(), rcFrom(r).WorkspaceID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
