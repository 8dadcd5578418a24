package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/ctxkeys"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/service"
)

// RequireUser checks the bearer JWT and adds its identity to the context.
// Requests without a valid token get 401.
func RequireUser(authService *service.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Missing bearer token")
				return
			}

			userID, err := authService.UserID(token)
			if err != nil {
				slog.Debug("rejected bearer token", "error", err, "path", r.URL.Path)
				unauthorized(w, "Invalid token")
				return
			}

			ctx := ctxkeys.WithUserID(r.Context(), userID)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAPIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check.
func RequireAPIKey(key string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if key == "" {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Header.Get("X-API-Key") != key {
				slog.Warn("rejected webhook api key", "path", r.URL.Path, "ip", getClientIP(r))
				unauthorized(w, "Invalid API key")
				return
			}
			next(w, r)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
