package http

import (
	"net/http"
	"time"

	"tally/internal/core"

	"github.com/gorilla/mux"
)

type keywordMappingDTO struct {
	ID          string            `json:"id"`
	Keyword     string            `json:"keyword"`
	CategoryID  *string           `json:"categoryId"`
	ExpenseType *core.ExpenseType `json:"expenseType"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func toKeywordMappingDTO(m core.KeywordMapping) keywordMappingDTO {
	return keywordMappingDTO{
		ID:          m.ID,
		Keyword:     m.Keyword,
		CategoryID:  m.CategoryID,
		ExpenseType: m.ExpenseType,
		CreatedAt:   m.CreatedAt,
	}
}

func (s *Server) handleListKeywordMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.repo.ListKeywordMappings(r.Context(), rcFrom(r).WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]keywordMappingDTO, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, toKeywordMappingDTO(m))
	}
	writeJSON(w, http.StatusOK, out)
}

type createKeywordMappingRequest struct {
	Keyword     string            `json:"keyword"`
	CategoryID  *string           `json:"categoryId"`
	ExpenseType *core.ExpenseType `json:"expenseType"`
}

func (s *Server) handleCreateKeywordMapping(w http.ResponseWriter, r *http.Request) {
	var req createKeywordMappingRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	mapping := core.KeywordMapping{
		WorkspaceID: rcFrom(r).WorkspaceID,
		Keyword:     req.Keyword,
		CategoryID:  req.CategoryID,
		ExpenseType: req.ExpenseType,
	}
	if err := mapping.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.repo.CreateKeywordMapping(r.Context(), mapping)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toKeywordMappingDTO(created))
}

type updateKeywordMappingRequest struct {
	Keyword     core.Patch[string]           `json:"keyword"`
	CategoryID  core.Patch[string]           `json:"categoryId"`
	ExpenseType core.Patch[core.ExpenseType] `json:"expenseType"`
}

func (s *Server) handleUpdateKeywordMapping(w http.ResponseWriter, r *http.Request) {
	var req updateKeywordMappingRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	rc := rcFrom(r)
	mapping, err := s.repo.GetKeywordMapping(r.Context(), rc.WorkspaceID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	if v, ok := req.Keyword.Value(); ok {
		mapping.Keyword = v
	}
	switch {
	case req.CategoryID.IsSet():
		v, _ := req.CategoryID.Value()
		mapping.CategoryID = &v
	case req.CategoryID.IsClear():
		mapping.CategoryID = nil
	}
	switch {
	case req.ExpenseType.IsSet():
		v, _ := req.ExpenseType.Value()
		mapping.ExpenseType = &v
	case req.ExpenseType.IsClear():
		mapping.ExpenseType = nil
	}

	if err := mapping.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.repo.UpdateKeywordMapping(r.Context(), mapping); err != nil {
		writeError(w, r, err)
		return
	}
	mapping.Keyword = core.NormalizeKeyword(mapping.Keyword)
	writeJSON(w, http.StatusOK, toKeywordMappingDTO(mapping))
}

func (s *Server) handleDeleteKeywordMapping(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteKeywordMapping(r.Context(), rcFrom(r).WorkspaceID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
