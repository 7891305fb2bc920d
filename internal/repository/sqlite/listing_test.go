package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/model"
)

// createTestListing creates a listing owned by userRef and fails the test on error.
func createTestListing(t *testing.T, l *ListingDB, userRef, name string) *model.Listing {
	t.Helper()
	listing := &model.Listing{
		Name:         name,
		Description:  "a lovely place",
		Address:      "42 Test Street",
		Type:         model.TypeRent,
		Bedrooms:     2,
		Bathrooms:    1,
		RegularPrice: 1200,
		ImageUrls:    []string{"uploads/one.jpg"},
		UserRef:      userRef,
	}
	if err := l.Create(context.Background(), listing); err != nil {
		t.Fatalf("failed to create test listing: %v", err)
	}
	return listing
}

func newTestListingDB(t *testing.T) (*ListingDB, *model.User) {
	t.Helper()
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "owner", "owner@example.com")
	return db.Listings(), owner
}

func TestListingCreate(t *testing.T) {
	l, owner := newTestListingDB(t)

	listing := createTestListing(t, l, owner.ID, "Cosy flat")

	if listing.ID == "" {
		t.Error("Create() did not set listing.ID")
	}
	if listing.CreatedAt.IsZero() {
		t.Error("Create() did not set listing.CreatedAt")
	}
}

func TestListingGetByID_RoundTrip(t *testing.T) {
	l, owner := newTestListingDB(t)
	created := createTestListing(t, l, owner.ID, "Cosy flat")
	created.ImageUrls = []string{"uploads/a.jpg", "uploads/b.jpg", "uploads/c.jpg"}
	if err := l.Update(context.Background(), created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := l.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Name != "Cosy flat" || got.UserRef != owner.ID {
		t.Errorf("GetByID() = %+v, want created listing", got)
	}
	// Image order must survive the JSON round trip
	want := []string{"uploads/a.jpg", "uploads/b.jpg", "uploads/c.jpg"}
	if len(got.ImageUrls) != len(want) {
		t.Fatalf("GetByID() imageUrls = %v, want %v", got.ImageUrls, want)
	}
	for i := range want {
		if got.ImageUrls[i] != want[i] {
			t.Errorf("imageUrls[%d] = %q, want %q", i, got.ImageUrls[i], want[i])
		}
	}
}

func TestListingGetByID_NotFound(t *testing.T) {
	l, _ := newTestListingDB(t)

	_, err := l.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestListingListByUser_CreationOrder(t *testing.T) {
	l, owner := newTestListingDB(t)

	var created []string
	for i := 0; i < 5; i++ {
		listing := createTestListing(t, l, owner.ID, fmt.Sprintf("listing-%d", i))
		created = append(created, listing.ID)
	}

	got, err := l.ListByUser(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(got) != len(created) {
		t.Fatalf("ListByUser() returned %d listings, want %d", len(got), len(created))
	}
	for i, id := range created {
		if got[i].ID != id {
			t.Errorf("ListByUser()[%d].ID = %q, want %q (creation order)", i, got[i].ID, id)
		}
	}
}

func TestListingListByUser_Empty(t *testing.T) {
	l, owner := newTestListingDB(t)

	got, err := l.ListByUser(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if got == nil {
		t.Error("ListByUser() returned nil, want empty slice (serializes as [])")
	}
	if len(got) != 0 {
		t.Errorf("ListByUser() returned %d listings, want 0", len(got))
	}
}

func TestListingListByUser_OnlyOwnListings(t *testing.T) {
	db := newTestDB(t)
	l := db.Listings()
	owner := createTestUser(t, db.Users(), "owner", "owner@example.com")
	other := createTestUser(t, db.Users(), "other", "other@example.com")

	createTestListing(t, l, owner.ID, "mine")
	createTestListing(t, l, other.ID, "theirs")

	got, err := l.ListByUser(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "mine" {
		t.Errorf("ListByUser() = %+v, want only the owner's listing", got)
	}
}

func TestListingUpdate(t *testing.T) {
	l, owner := newTestListingDB(t)
	listing := createTestListing(t, l, owner.ID, "before")

	listing.Name = "after"
	listing.Offer = true
	listing.DiscountPrice = 900
	if err := l.Update(context.Background(), listing); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := l.GetByID(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "after" || !got.Offer || got.DiscountPrice != 900 {
		t.Errorf("Update() round trip = %+v", got)
	}
}

func TestListingDelete(t *testing.T) {
	l, owner := newTestListingDB(t)
	listing := createTestListing(t, l, owner.ID, "doomed")

	if err := l.Delete(context.Background(), listing.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := l.GetByID(context.Background(), listing.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestListingDelete_NotFound(t *testing.T) {
	l, _ := newTestListingDB(t)

	if err := l.Delete(context.Background(), "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
