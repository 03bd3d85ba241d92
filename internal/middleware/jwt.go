package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	ParticipantKey contextKey = "participant_id"
	NameKey        contextKey = "participant_name"
	PartyKey       contextKey = "participant_party"
)

// TokenValidator decouples this package from the participant service.
type TokenValidator interface {
	ValidateToken(tokenString string) (id, name, party string, err error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		// Browsers can't set headers on a websocket upgrade, so fall back
		// to a query param.
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		id, name, party, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ParticipantKey, id)
		ctx = context.WithValue(ctx, NameKey, name)
		ctx = context.WithValue(ctx, PartyKey, party)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
