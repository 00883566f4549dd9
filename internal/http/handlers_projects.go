package http

import (
	"net/http"
	"strings"

	"tally/internal/core"

	"github.com/gorilla/mux"
)

type projectDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.repo.ListProjects(r.Context(), rcFrom(r).WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]projectDTO, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectDTO{ID: p.ID, Name: p.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

type projectRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, r, core.ErrEmptyName)
		return
	}

	project, err := s.repo.CreateProject(r.Context(), rcFrom(r).WorkspaceID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectDTO{ID: project.ID, Name: project.Name})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, r, core.ErrEmptyName)
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.repo.UpdateProject(r.Context(), rcFrom(r).WorkspaceID, id, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectDTO{ID: id, Name: req.Name})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteProject(r.Context(), rcFrom(r).WorkspaceID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
