package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions: only this package can
// create a key of type contextKey, so only this package can read or write
// userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "access_token" HttpOnly cookie, validates it,
// and stores the userID in the request context. If the token is missing or
// invalid, it returns 401 Unauthorized and stops the request chain.
//
// We store the JWT in an HttpOnly cookie rather than localStorage or a
// header — JavaScript cannot read it, which keeps XSS from stealing the token.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"message":"Unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth extracts the user identity if a valid token is present, but
// does NOT block the request if it's missing or invalid.
//
// Used on public routes like GET /api/listing/get/{id} where anonymous
// visitors can read but signed-in owners might see extra affordances.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID != "" {
				r = r.WithContext(ContextWithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithUserID returns a context carrying the authenticated user's ID.
// The middleware uses it after token validation; handler tests use it to
// stand in for a validated session.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the JWT cookie and validates it.
// Shared by RequireAuth and OptionalAuth.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		// http.ErrNoCookie — no token, anonymous request
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
