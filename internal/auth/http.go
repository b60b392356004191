// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts the bearer token, verifies it and puts the subject on the context

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// RequireBearer rejects requests without a valid bearer token with 401.
func RequireBearer(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				unauthorized(w, errMsg)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, ErrExpiredToken) {
					msg = "token expired"
				}
				unauthorized(w, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="crm"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
