package auth

import (
	"net/http"
	"strings"
)

// Middleware validates the Authorization header and stores the resulting
// identity in the request context. Requests without a valid bearer token are
// rejected with 401.
func Middleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "authorization header must start with 'Bearer '", http.StatusUnauthorized)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				http.Error(w, "authorization token is empty", http.StatusUnauthorized)
				return
			}

			identity, err := tokens.Verify(token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}
