package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/estate/internal/auth"
	"github.com/sakif/estate/internal/service"
)

// AuthHandler manages registration, sign-in, Google sign-in and sign-out.
//
// RESPONSIBILITIES:
//   - HandleSignUp   → create an account (no cookie — sign-up is not sign-in)
//   - HandleSignIn   → verify credentials, set the access_token cookie
//   - HandleGoogle   → upsert by email from a Google profile, set the cookie
//   - HandleSignOut  → clear the cookie
//   - HandleGoogleLogin / HandleGoogleCallback → server-driven OAuth flow
//     for browsers that don't run the client-side Google SDK
type AuthHandler struct {
	authService *service.AuthService
	google      *auth.GoogleProvider // nil when OAuth credentials aren't configured
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		google:      google,
		logger:      logger,
	}
}

// setTokenCookie stores the JWT in the HttpOnly access_token cookie.
// HttpOnly keeps it out of reach of page scripts; SameSite=Lax keeps it off
// cross-site POSTs.
func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleSignUp registers a new account.
//
// HTTP: POST /api/auth/signup
// BODY: {"username": ..., "email": ..., "password": ...}
//
// On success: 201 {"success":true,"message":"User created successfully!"}.
// Deliberately does NOT set the auth cookie — the client redirects to the
// sign-in form after registration.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON body"})
		return
	}

	if _, err := h.authService.SignUp(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User created successfully!",
	})
}

// HandleSignIn verifies credentials and issues the auth cookie.
//
// HTTP: POST /api/auth/signin
// BODY: {"email": ..., "password": ...}
//
// On success: 200 {"success":true,"message":...,"user":{...}} plus the
// access_token cookie. The user record never includes password material.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON body"})
		return
	}

	result, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Signed in successfully!",
		"user":    result.User,
	})
}

// HandleGoogle signs a user in from a Google profile posted by the client.
//
// HTTP: POST /api/auth/google
// BODY: {"name": ..., "email": ..., "photo": ...}
//
// The account is upserted by email: first sign-in creates it, later ones
// refresh the avatar. Response shape matches HandleSignIn.
func (h *AuthHandler) HandleGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Photo string `json:"photo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON body"})
		return
	}

	result, err := h.authService.GoogleSignIn(r.Context(), req.Name, req.Email, req.Photo)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Signed in successfully!",
		"user":    result.User,
	})
}

// HandleSignOut clears the auth cookie.
//
// HTTP: GET /api/auth/signout
//
// Always succeeds — an expired or absent cookie still results in a cleared
// cookie and a success envelope, so the client can settle its sign-out
// operation unconditionally.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Signed out successfully!",
	})
}

// HandleGoogleLogin redirects the browser to Google's authorization page.
//
// HTTP: GET /auth/google/login
//
// The random state value is stored in a short-lived cookie and verified on
// callback — standard CSRF protection for the OAuth flow.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "Google sign-in is not configured"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the server-driven OAuth flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "Google sign-in is not configured"})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing OAuth code"})
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "authentication failed"})
		return
	}

	result, err := h.authService.GoogleSignIn(r.Context(), gUser.Name, gUser.Email, gUser.Picture)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe returns the signed-in user's record.
//
// HTTP: GET /api/auth/me (protected)
//
// Used by clients that restore a persisted session and want to confirm the
// cookie is still valid.
func (h *AuthHandler) HandleMe(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
			return
		}

		user, err := users.GetByID(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
