package http

import (
	"errors"
	"net/http"
	"strings"

	"tally/internal/core"
	"tally/internal/log"
)

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	WorkspaceName string `json:"workspaceName"`
	Currency      string `json:"currency"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	UserID    string       `json:"userId"`
	Workspace workspaceDTO `json:"workspace,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		badRequest(w, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		badRequest(w, "password must be at least 8 characters")
		return
	}
	if req.WorkspaceName == "" {
		req.WorkspaceName = "Personal"
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, ws, err := s.repo.CreateUserWithWorkspace(r.Context(), req.Email, hash, req.WorkspaceName, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered",
		log.FieldUserID, user.ID,
		log.FieldWorkspaceID, ws.ID)

	writeJSON(w, http.StatusCreated, authResponse{
		Token:     token,
		UserID:    user.ID,
		Workspace: toWorkspaceDTO(ws),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	user, err := s.repo.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		writeError(w, r, err)
		return
	}
	if !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: user.ID})
}
