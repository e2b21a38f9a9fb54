package handler

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RequireAuth guards a destructive route with a bearer token checked against
// the configured bcrypt hash. An empty hash disables the check, which is the
// single-user local deployment mode.
func RequireAuth(tokenHash string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokenHash == "" {
			next(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeError(w, "Authorization required", "Provide a bearer token", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
			writeError(w, "Invalid token", "", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
