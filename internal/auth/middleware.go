package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kmehta/taskhub-be/internal/models"
)

type contextKey string

const (
	userKey  = contextKey("authUser")
	tokenKey = contextKey("authToken")
)

// SessionResolver looks up a user by id, requiring the given token to still be
// present in that user's session list. A structurally valid token that was
// revoked by logout must not resolve.
type SessionResolver interface {
	GetUserBySession(userID, token string) (models.User, error)
}

// Middleware creates a middleware for protecting routes. It resolves the
// bearer token to a user and attaches user and token to the request context.
// Every failure path returns the same 401 response.
func Middleware(tokens *TokenService, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || tokenStr == "" {
				unauthorized(w)
				return
			}

			userID, err := tokens.Verify(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := sessions.GetUserBySession(userID, tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "please authenticate with a valid token"})
}

// UserFromContext returns the authenticated user attached by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// TokenFromContext returns the raw bearer token attached by Middleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}
