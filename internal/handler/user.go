package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/estate/internal/auth"
	"github.com/sakif/estate/internal/service"
)

// UserHandler manages profile updates, account deletion and the per-user
// listing index.
type UserHandler struct {
	users    *service.UserService
	listings *service.ListingService
	logger   *slog.Logger
}

func NewUserHandler(users *service.UserService, listings *service.ListingService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		listings: listings,
		logger:   logger,
	}
}

// HandleUpdate applies a partial update to the user's own account.
//
// HTTP: PUT /api/user/update/{id} (protected)
// BODY: any subset of {"username","email","avatar","password"}
//
// Fields absent from the body are unchanged. The ownership check (acting
// user == {id}) happens in the service and comes back as a 401 envelope —
// the client treats it as a normal error-reason response.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := auth.UserIDFromContext(r.Context())
	targetID := r.PathValue("id")

	var update service.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON body"})
		return
	}

	user, err := h.users.Update(r.Context(), actingUserID, targetID, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User updated successfully!",
		"user":    user,
	})
}

// HandleDelete removes the user's own account, its listings, and the
// session cookie.
//
// HTTP: DELETE /api/user/delete/{id} (protected)
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := auth.UserIDFromContext(r.Context())
	targetID := r.PathValue("id")

	if err := h.users.Delete(r.Context(), actingUserID, targetID); err != nil {
		writeError(w, err)
		return
	}

	// Listings must not outlive their owner. The account is already gone,
	// so a failure here is logged rather than surfaced.
	if err := h.listings.DeleteAllForUser(r.Context(), targetID); err != nil {
		h.logger.Error("failed to delete listings for removed user",
			slog.String("userID", targetID),
			slog.String("error", err.Error()),
		)
	}

	clearTokenCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User deleted successfully!",
	})
}

// HandleListings returns all listings owned by a user, in creation order.
//
// HTTP: GET /api/user/listings/{id} (protected)
//
// Response is the bare sequence of listing records — no envelope — which is
// what the client's list view consumes wholesale.
func (h *UserHandler) HandleListings(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	listings, err := h.listings.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}
