package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sitemix/sitemix/pkg/log"
)

type contextKey string

const emailContextKey contextKey = "email"

// authMiddleware validates the bearer ID token on API requests. When no OIDC
// audience is configured the server runs open, which is the intended mode
// behind IAP or on a private network.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.bypassAuth {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSONError(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		idToken, err := s.verifier(r.Context(), raw)
		if err != nil {
			log.Ctx(r.Context()).DebugContext(r.Context(), "token verification failed", slog.Any("error", err))
			writeJSONError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		var claims struct {
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil {
			writeJSONError(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), emailContextKey, claims.Email)
		ctx = log.Attach(ctx, slog.String("email", claims.Email))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestEmail returns the verified email on the request, if any.
func requestEmail(r *http.Request) string {
	if email, ok := r.Context().Value(emailContextKey).(string); ok {
		return email
	}
	return ""
}
