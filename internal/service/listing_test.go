package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/model"
)

// mockListingRepo is an in-memory repository.ListingRepository preserving
// insertion order for ListByUser.
type mockListingRepo struct {
	listings map[string]*model.Listing
	order    []string
	nextID   int
}

func newMockListingRepo() *mockListingRepo {
	return &mockListingRepo{listings: make(map[string]*model.Listing)}
}

func (m *mockListingRepo) Create(_ context.Context, listing *model.Listing) error {
	m.nextID++
	listing.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *listing
	m.listings[listing.ID] = &stored
	m.order = append(m.order, listing.ID)
	return nil
}

func (m *mockListingRepo) GetByID(_ context.Context, id string) (*model.Listing, error) {
	listing, ok := m.listings[id]
	if !ok {
		return nil, apperror.NotFound("listing", id)
	}
	result := *listing
	return &result, nil
}

func (m *mockListingRepo) ListByUser(_ context.Context, userID string) ([]model.Listing, error) {
	result := []model.Listing{}
	for _, id := range m.order {
		if l, ok := m.listings[id]; ok && l.UserRef == userID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockListingRepo) Update(_ context.Context, listing *model.Listing) error {
	if _, ok := m.listings[listing.ID]; !ok {
		return apperror.NotFound("listing", listing.ID)
	}
	stored := *listing
	m.listings[listing.ID] = &stored
	return nil
}

func (m *mockListingRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.listings[id]; !ok {
		return apperror.NotFound("listing", id)
	}
	delete(m.listings, id)
	return nil
}

func newTestListingService(t *testing.T) (*ListingService, *mockListingRepo) {
	t.Helper()
	repo := newMockListingRepo()
	return NewListingService(repo, testLogger()), repo
}

func validListing() *model.Listing {
	return &model.Listing{
		Name:         "Cosy flat",
		Description:  "close to everything",
		Address:      "42 Test Street",
		Type:         model.TypeRent,
		Bedrooms:     2,
		Bathrooms:    1,
		RegularPrice: 1200,
		ImageUrls:    []string{"uploads/one.jpg"},
	}
}

func TestListingCreate(t *testing.T) {
	svc, _ := newTestListingService(t)

	created, err := svc.Create(context.Background(), "user-1", validListing())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if created.UserRef != "user-1" {
		t.Errorf("Create() userRef = %q, want acting user", created.UserRef)
	}
}

func TestListingCreate_Validation(t *testing.T) {
	svc, repo := newTestListingService(t)

	tests := []struct {
		name        string
		mutate      func(*model.Listing)
		wantMessage string
	}{
		{
			name:        "no images",
			mutate:      func(l *model.Listing) { l.ImageUrls = nil },
			wantMessage: "You must upload at least one image.",
		},
		{
			name: "too many images",
			mutate: func(l *model.Listing) {
				l.ImageUrls = make([]string, 7)
				for i := range l.ImageUrls {
					l.ImageUrls[i] = fmt.Sprintf("uploads/%d.jpg", i)
				}
			},
			wantMessage: "You can only upload a maximum of 6 images.",
		},
		{
			name: "discount not below regular with offer",
			mutate: func(l *model.Listing) {
				l.Offer = true
				l.RegularPrice = 50
				l.DiscountPrice = 100
			},
			wantMessage: "Discount price must be lower than regular price",
		},
		{
			name:        "missing name",
			mutate:      func(l *model.Listing) { l.Name = "  " },
			wantMessage: "listing name is required",
		},
		{
			name:        "bad type",
			mutate:      func(l *model.Listing) { l.Type = "lease" },
			wantMessage: "type must be 'sale' or 'rent'",
		},
		{
			name:        "zero bedrooms",
			mutate:      func(l *model.Listing) { l.Bedrooms = 0 },
			wantMessage: "bedrooms must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := validListing()
			tt.mutate(listing)

			_, err := svc.Create(context.Background(), "user-1", listing)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMessage)
			}
		})
	}

	if len(repo.listings) != 0 {
		t.Errorf("rejected creates still stored %d listings", len(repo.listings))
	}
}

func TestListingUpdate_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestListingService(t)

	created, err := svc.Create(context.Background(), "owner", validListing())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	update := validListing()
	update.Name = "hijacked"
	_, err = svc.Update(context.Background(), "attacker", created.ID, update)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Update() error = %v, want ErrUnauthorized", err)
	}
}

func TestListingUpdate_KeepsIdentity(t *testing.T) {
	svc, _ := newTestListingService(t)

	created, err := svc.Create(context.Background(), "owner", validListing())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	update := validListing()
	update.Name = "renovated"
	update.UserRef = "someone-else" // must be ignored

	got, err := svc.Update(context.Background(), "owner", created.ID, update)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Update() changed ID: %q → %q", created.ID, got.ID)
	}
	if got.UserRef != "owner" {
		t.Errorf("Update() changed UserRef to %q", got.UserRef)
	}
	if got.Name != "renovated" {
		t.Errorf("Update() name = %q", got.Name)
	}
}

func TestListingDelete_OwnershipEnforced(t *testing.T) {
	svc, repo := newTestListingService(t)

	created, err := svc.Create(context.Background(), "owner", validListing())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), "attacker", created.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Delete() error = %v, want ErrUnauthorized", err)
	}
	if _, ok := repo.listings[created.ID]; !ok {
		t.Error("listing was deleted despite failed ownership check")
	}

	if err := svc.Delete(context.Background(), "owner", created.ID); err != nil {
		t.Fatalf("Delete() by owner error = %v", err)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	svc, repo := newTestListingService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), "owner", validListing()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), "other", validListing()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.DeleteAllForUser(context.Background(), "owner"); err != nil {
		t.Fatalf("DeleteAllForUser() error = %v", err)
	}

	if len(repo.listings) != 1 {
		t.Errorf("%d listings remain, want 1 (the other user's)", len(repo.listings))
	}
}
