package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/repository"
)

// Validation constants for listing fields.
const (
	MaxListingNameLength        = 100
	MaxListingDescriptionLength = 5000
)

// ListingService handles business logic for property listings.
type ListingService struct {
	listings repository.ListingRepository
	logger   *slog.Logger
}

func NewListingService(listings repository.ListingRepository, logger *slog.Logger) *ListingService {
	return &ListingService{
		listings: listings,
		logger:   logger,
	}
}

// Create validates and saves a new listing owned by actingUserID.
//
// The server is the authority on the image and price rules; the client
// performs the same checks pre-flight, but anything that slips past (or a
// non-browser caller) is rejected here with the same messages.
func (s *ListingService) Create(ctx context.Context, actingUserID string, listing *model.Listing) (*model.Listing, error) {
	if err := validateListing(listing); err != nil {
		return nil, err
	}

	listing.UserRef = actingUserID
	if err := s.listings.Create(ctx, listing); err != nil {
		s.logger.Error("failed to create listing",
			slog.String("user", actingUserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	s.logger.Info("listing created",
		slog.String("id", listing.ID),
		slog.String("user", actingUserID),
	)

	return listing, nil
}

// GetByID retrieves a listing by its ID.
// Returns apperror.ErrNotFound if the listing doesn't exist.
func (s *ListingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "listing ID is required")
	}
	return s.listings.GetByID(ctx, id)
}

// ListByUser returns all listings owned by userID in creation order.
func (s *ListingService) ListByUser(ctx context.Context, userID string) ([]model.Listing, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	listings, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list listings",
			slog.String("user", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing listings: %w", err)
	}

	return listings, nil
}

// Update modifies an existing listing.
//
// Fetch-then-update: the existing record is loaded first, which yields a
// consistent NotFound error and lets the ownership check run before any
// write. Only the owner may update a listing.
func (s *ListingService) Update(ctx context.Context, actingUserID, id string, updated *model.Listing) (*model.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "listing ID is required")
	}

	existing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserRef != actingUserID {
		return nil, apperror.Unauthorized("You can only update your own listings!")
	}

	if err := validateListing(updated); err != nil {
		return nil, err
	}

	// Identity and ownership are immutable; everything else comes from the form.
	updated.ID = existing.ID
	updated.UserRef = existing.UserRef
	updated.CreatedAt = existing.CreatedAt

	if err := s.listings.Update(ctx, updated); err != nil {
		s.logger.Error("failed to update listing",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating listing: %w", err)
	}

	s.logger.Info("listing updated", slog.String("id", id))

	return updated, nil
}

// Delete removes a listing. Only the owner may delete it.
func (s *ListingService) Delete(ctx context.Context, actingUserID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "listing ID is required")
	}

	existing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserRef != actingUserID {
		return apperror.Unauthorized("You can only delete your own listings!")
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("listing deleted", slog.String("id", id))
	return nil
}

// DeleteAllForUser removes every listing owned by userID. Called when an
// account is deleted so listings never outlive their owner.
func (s *ListingService) DeleteAllForUser(ctx context.Context, userID string) error {
	listings, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing listings for cleanup: %w", err)
	}
	for _, listing := range listings {
		if err := s.listings.Delete(ctx, listing.ID); err != nil {
			return fmt.Errorf("deleting listing %s during cleanup: %w", listing.ID, err)
		}
	}
	return nil
}

// validateListing enforces the listing rules shared by create and update.
func validateListing(listing *model.Listing) error {
	listing.Name = strings.TrimSpace(listing.Name)
	listing.Address = strings.TrimSpace(listing.Address)

	if listing.Name == "" {
		return apperror.ValidationFailed("name", "listing name is required")
	}
	if len(listing.Name) > MaxListingNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("listing name must be %d characters or less", MaxListingNameLength))
	}
	if len(listing.Description) > MaxListingDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxListingDescriptionLength))
	}
	if listing.Address == "" {
		return apperror.ValidationFailed("address", "address is required")
	}
	if listing.Type != model.TypeSale && listing.Type != model.TypeRent {
		return apperror.ValidationFailed("type", "type must be 'sale' or 'rent'")
	}
	if listing.Bedrooms < 1 {
		return apperror.ValidationFailed("bedrooms", "bedrooms must be at least 1")
	}
	if listing.Bathrooms < 1 {
		return apperror.ValidationFailed("bathrooms", "bathrooms must be at least 1")
	}
	if listing.RegularPrice < 0 {
		return apperror.ValidationFailed("regularPrice", "regular price must not be negative")
	}
	if listing.DiscountPrice < 0 {
		return apperror.ValidationFailed("discountPrice", "discount price must not be negative")
	}
	if listing.Offer && listing.DiscountPrice >= listing.RegularPrice {
		return apperror.ValidationFailed("discountPrice", "Discount price must be lower than regular price")
	}
	if len(listing.ImageUrls) < model.MinListingImages {
		return apperror.ValidationFailed("imageUrls", "You must upload at least one image.")
	}
	if len(listing.ImageUrls) > model.MaxListingImages {
		return apperror.ValidationFailed("imageUrls",
			fmt.Sprintf("You can only upload a maximum of %d images.", model.MaxListingImages))
	}

	return nil
}
