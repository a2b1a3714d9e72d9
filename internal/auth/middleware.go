package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-chaldduck/internal/common"
)

type contextKey string

const adminKey contextKey = "auth.admin"

// AdminFrom returns the authenticated admin subject from the context.
func AdminFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminKey).(string)
	return v, ok && v != ""
}

// Middleware enforces admin authentication on protected routes.
type Middleware struct {
	Service *Service
}

// RequireAdmin rejects requests without a valid bearer token and
// attaches the admin subject to the request context.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		subject, err := m.Service.ParseAccessToken(token)
		if err != nil {
			common.JSONAppError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey, subject)))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
