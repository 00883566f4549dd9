package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/log"
)

type contextKey string

const requestContextKey contextKey = "request_context"

// rcFrom returns the authenticated RequestContext placed by requireAuth.
func rcFrom(r *http.Request) core.RequestContext {
	rc, _ := r.Context().Value(requestContextKey).(core.RequestContext)
	return rc
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withCommon adds security headers, per-IP rate limiting on mutating
// methods, and request logging.
func (s *Server) withCommon(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		clientIP := extractClientIP(r)
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.limiter.allow(clientIP) {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldPath, r.URL.Path)
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
				return
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.FromContext(r.Context()).InfoContext(r.Context(), "Request handled",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rec.status,
			log.FieldClientIP, clientIP,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

// requireAuth verifies the bearer token, resolves the target workspace from
// the X-Workspace-ID header (defaulting to the user's first workspace),
// checks membership and stores the RequestContext.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}

		userID, err := s.auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, r, err)
			return
		}

		workspaceID := r.Header.Get("X-Workspace-ID")
		if workspaceID == "" {
			workspaceID, err = s.repo.FirstWorkspaceForUser(r.Context(), userID)
			if err != nil {
				writeError(w, r, err)
				return
			}
		}

		member, err := s.repo.IsMember(r.Context(), workspaceID, userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !member {
			writeError(w, r, core.ErrNotMember)
			return
		}

		rc := core.RequestContext{UserID: userID, WorkspaceID: workspaceID}
		ctx := context.WithValue(r.Context(), requestContextKey, rc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
