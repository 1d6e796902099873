package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/retrend/chat/internal/logging"
)

type ctxKey string

const ctxUserEmail ctxKey = "userEmail"

// requireAuth resolves the bearer token to an account and rejects the
// request if the token is missing, unknown, or expired.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}

		email, err := s.sessions.Lookup(r.Context(), strings.TrimSpace(token))
		if err != nil {
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserEmail, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(ctxUserEmail).(string)
	return email, ok && email != ""
}

// logRequests emits one debug line per request. The request URI is
// redacted so tokens that land in query strings never reach the logs.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("uri", logging.Redact(r.URL.RequestURI())).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
