package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicdesk/identity/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const profileKey ctxKey = "profile"

// RequireSession resolves the request's session token to its account and
// rejects the request with 401 when that fails. Handlers behind it read the
// caller with PrincipalFromContext.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.auth.CheckAuth(r.Context(), s.sessions.FromRequest(r))
		recordOutcome("check_auth", err)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey, p)))
	})
}

// PrincipalFromContext returns the user id resolved by RequireSession.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	p, ok := ProfileFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.ID, true
}

// ProfileFromContext returns the profile resolved by RequireSession.
func ProfileFromContext(ctx context.Context) (*models.Profile, bool) {
	p, ok := ctx.Value(profileKey).(*models.Profile)
	return p, ok && p != nil
}

// logRequests logs one line per request. Paths are logged as routed, so
// reset tokens never reach the log.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", routePattern(r),
			"status", statusOf(ww),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}
