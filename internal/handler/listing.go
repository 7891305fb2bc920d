package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/estate/internal/auth"
	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/service"
)

// ListingHandler manages CRUD operations for property listings.
type ListingHandler struct {
	listings *service.ListingService
	logger   *slog.Logger
}

func NewListingHandler(listings *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, logger: logger}
}

// HandleCreate publishes a new listing owned by the signed-in user.
//
// HTTP: POST /api/listing/create (protected)
// BODY: listing fields; a userRef in the body is ignored — ownership comes
// from the session, never from the payload.
//
// On success: 201 with the bare created listing record.
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := auth.UserIDFromContext(r.Context())

	var listing model.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON body"})
		return
	}

	created, err := h.listings.Create(r.Context(), actingUserID, &listing)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleGet returns one listing.
//
// HTTP: GET /api/listing/get/{id} (public)
//
// Response is the bare listing record — the client's detail slot takes it
// as-is.
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// HandleUpdate overwrites a listing the signed-in user owns.
//
// HTTP: PUT /api/listing/update/{id} (protected)
//
// On success: {"success":true,"message":...,"listing":{...}}.
func (h *ListingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := auth.UserIDFromContext(r.Context())

	var listing model.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON body"})
		return
	}

	updated, err := h.listings.Update(r.Context(), actingUserID, r.PathValue("id"), &listing)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Listing updated successfully!",
		"listing": updated,
	})
}

// HandleDelete removes a listing the signed-in user owns.
//
// HTTP: DELETE /api/listing/delete/{id} (protected)
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := auth.UserIDFromContext(r.Context())

	if err := h.listings.Delete(r.Context(), actingUserID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Listing deleted successfully!",
	})
}
