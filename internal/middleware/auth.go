package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	AuthKey   contextKey = "auth"
)

// AuthInfo contains authenticated user information
type AuthInfo struct {
	UserID string
	Name   string
	Email  string
}

// TokenVerifier validates bearer tokens. *auth.Client satisfies it; tests
// substitute a fake.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserProvisioner creates a local user row for an authenticated identity on
// first sight.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, id, name, email string) error
}

// AuthMiddleware validates Firebase Auth tokens and provisions users
type AuthMiddleware struct {
	verifier TokenVerifier
	users    UserProvisioner
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier TokenVerifier, users UserProvisioner) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

// RequireAuth middleware that requires authentication. Runs before any data
// access: a request without a valid token never reaches a handler.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]

		decodedToken, err := m.verifier.VerifyIDToken(r.Context(), token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		authInfo := AuthInfo{
			UserID: decodedToken.UID,
		}
		if email, ok := decodedToken.Claims["email"].(string); ok {
			authInfo.Email = email
		}
		if name, ok := decodedToken.Claims["name"].(string); ok {
			authInfo.Name = name
		}
		if authInfo.Name == "" {
			authInfo.Name = authInfo.Email
		}

		// First sight of this identity creates its local user row
		if m.users != nil {
			if err := m.users.EnsureUser(r.Context(), authInfo.UserID, authInfo.Name, authInfo.Email); err != nil {
				log.Printf("ERROR: failed to provision user %s: %v", authInfo.UserID, err)
				http.Error(w, "Failed to provision user", http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), AuthKey, authInfo)
		ctx = context.WithValue(ctx, UserIDKey, decodedToken.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetAuth retrieves auth info from the request context
func GetAuth(r *http.Request) (AuthInfo, bool) {
	if info, ok := r.Context().Value(AuthKey).(AuthInfo); ok {
		return info, true
	}
	return AuthInfo{}, false
}
