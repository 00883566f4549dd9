package http

import (
	"net/http"
	"time"

	"tally/internal/core"
)

type importLogDTO struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	RowCount      int       `json:"rowCount"`
	ImportedCount int       `json:"importedCount"`
	SkippedCount  int       `json:"skippedCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toImportLogDTO(l core.ImportLog) importLogDTO {
	return importLogDTO{
		ID:            l.ID,
		Source:        l.Source,
		RowCount:      l.RowCount,
		ImportedCount: l.ImportedCount,
		SkippedCount:  l.SkippedCount,
		CreatedAt:     l.CreatedAt,
	}
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	logs, err := s.repo.ListImportLogs(r.Context(), rcFrom(r).WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]importLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, toImportLogDTO(l))
	}
	writeJSON(w, http.StatusOK, out)
}

type importRequest struct {
	Source string   `json:"source"`
	Rows   []string `json:"rows"`
}

func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Source == "" {
		req.Source = "manual"
	}
	if len(req.Rows) == 0 {
		writeError(w, r, core.ErrEmptyInput)
		return
	}

	rc := rcFrom(r)
	log, err := s.expenses.ImportRows(r.Context(), rc, req.Source, req.Rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboards(rc.WorkspaceID)
	writeJSON(w, http.StatusCreated, toImportLogDTO(log))
}
