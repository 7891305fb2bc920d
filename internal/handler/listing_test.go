package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/auth"
	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/service"
)

// memListingRepo is an in-memory repository.ListingRepository for handler
// tests — the service layer is real, only the storage is faked.
type memListingRepo struct {
	listings map[string]*model.Listing
	nextID   int
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{listings: make(map[string]*model.Listing)}
}

func (m *memListingRepo) Create(_ context.Context, listing *model.Listing) error {
	m.nextID++
	listing.ID = fmt.Sprintf("mem-%d", m.nextID)
	stored := *listing
	m.listings[listing.ID] = &stored
	return nil
}

func (m *memListingRepo) GetByID(_ context.Context, id string) (*model.Listing, error) {
	listing, ok := m.listings[id]
	if !ok {
		return nil, apperror.NotFound("listing", id)
	}
	result := *listing
	return &result, nil
}

func (m *memListingRepo) ListByUser(_ context.Context, userID string) ([]model.Listing, error) {
	result := []model.Listing{}
	for _, l := range m.listings {
		if l.UserRef == userID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *memListingRepo) Update(_ context.Context, listing *model.Listing) error {
	if _, ok := m.listings[listing.ID]; !ok {
		return apperror.NotFound("listing", listing.ID)
	}
	stored := *listing
	m.listings[listing.ID] = &stored
	return nil
}

func (m *memListingRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.listings[id]; !ok {
		return apperror.NotFound("listing", id)
	}
	delete(m.listings, id)
	return nil
}

func newTestListingHandler() (*ListingHandler, *memListingRepo) {
	repo := newMemListingRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewListingHandler(service.NewListingService(repo, logger), logger), repo
}

// authedRequest builds a request carrying a validated session for userID,
// the way RequireAuth leaves it after checking the cookie.
func authedRequest(method, target, userID string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		json.NewEncoder(buf).Encode(body)
		reader = buf
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func listingBody() map[string]any {
	return map[string]any{
		"name":         "Cosy flat",
		"description":  "close to everything",
		"address":      "42 Test Street",
		"type":         "rent",
		"bedrooms":     2,
		"bathrooms":    1,
		"regularPrice": 1200,
		"imageUrls":    []string{"uploads/one.jpg"},
	}
}

func TestHandleCreate(t *testing.T) {
	h, _ := newTestListingHandler()

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, authedRequest(http.MethodPost, "/api/listing/create", "user-1", listingBody()))

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created model.Listing
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-1", created.UserRef, "ownership must come from the session")
}

func TestHandleCreate_IgnoresBodyUserRef(t *testing.T) {
	h, _ := newTestListingHandler()

	body := listingBody()
	body["userRef"] = "somebody-else"

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, authedRequest(http.MethodPost, "/api/listing/create", "user-1", body))

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created model.Listing
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "user-1", created.UserRef)
}

func TestHandleCreate_ValidationEnvelope(t *testing.T) {
	h, repo := newTestListingHandler()

	body := listingBody()
	body["imageUrls"] = []string{}

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, authedRequest(http.MethodPost, "/api/listing/create", "user-1", body))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "You must upload at least one image.", resp.Message)
	assert.Empty(t, repo.listings, "rejected listing must not be stored")
}

func TestHandleGet(t *testing.T) {
	h, repo := newTestListingHandler()

	stored := &model.Listing{
		Name: "Stored flat", Description: "d", Address: "a", Type: model.TypeSale,
		Bedrooms: 3, Bathrooms: 2, RegularPrice: 300000,
		ImageUrls: []string{"uploads/a.jpg"}, UserRef: "user-1",
	}
	assert.NoError(t, repo.Create(context.Background(), stored))

	req := httptest.NewRequest(http.MethodGet, "/api/listing/get/"+stored.ID, nil)
	req.SetPathValue("id", stored.ID)

	rr := httptest.NewRecorder()
	h.HandleGet(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got model.Listing
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "Stored flat", got.Name)
}

func TestHandleGet_NotFound(t *testing.T) {
	h, _ := newTestListingHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/listing/get/ghost", nil)
	req.SetPathValue("id", "ghost")

	rr := httptest.NewRecorder()
	h.HandleGet(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp ErrorResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Success)
}

func TestHandleDelete_OwnerOnly(t *testing.T) {
	h, repo := newTestListingHandler()

	stored := &model.Listing{
		Name: "Owned flat", Description: "d", Address: "a", Type: model.TypeRent,
		Bedrooms: 1, Bathrooms: 1, RegularPrice: 900,
		ImageUrls: []string{"uploads/a.jpg"}, UserRef: "owner",
	}
	assert.NoError(t, repo.Create(context.Background(), stored))

	req := authedRequest(http.MethodDelete, "/api/listing/delete/"+stored.ID, "intruder", nil)
	req.SetPathValue("id", stored.ID)

	rr := httptest.NewRecorder()
	h.HandleDelete(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Len(t, repo.listings, 1, "listing must survive a non-owner delete")
}

func TestHandleUpdate(t *testing.T) {
	h, repo := newTestListingHandler()

	stored := &model.Listing{
		Name: "Before", Description: "d", Address: "a", Type: model.TypeRent,
		Bedrooms: 1, Bathrooms: 1, RegularPrice: 900,
		ImageUrls: []string{"uploads/a.jpg"}, UserRef: "owner",
	}
	assert.NoError(t, repo.Create(context.Background(), stored))

	body := listingBody()
	body["name"] = "After"

	req := authedRequest(http.MethodPut, "/api/listing/update/"+stored.ID, "owner", body)
	req.SetPathValue("id", stored.ID)

	rr := httptest.NewRecorder()
	h.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Listing model.Listing `json:"listing"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "After", resp.Listing.Name)
	assert.Equal(t, stored.ID, resp.Listing.ID, "identity must be immutable")
	assert.Equal(t, "owner", resp.Listing.UserRef)
}
