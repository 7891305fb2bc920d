package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/repository"
)

// ListingDB implements repository.ListingRepository on top of the shared pool.
type ListingDB struct {
	conn *sql.DB
}

var _ repository.ListingRepository = (*ListingDB)(nil)

const listingColumns = `id, name, description, address, type, parking, furnished, offer,
	bedrooms, bathrooms, regular_price, discount_price, image_urls, user_ref,
	created_at, updated_at`

// Create inserts a new listing, generating its ID and timestamps.
func (l *ListingDB) Create(ctx context.Context, listing *model.Listing) error {
	now := time.Now()
	listing.ID = xid.New().String()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	images, err := encodeImageUrls(listing.ImageUrls)
	if err != nil {
		return err
	}

	_, err = l.conn.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.Name,
		listing.Description,
		listing.Address,
		listing.Type,
		listing.Parking,
		listing.Furnished,
		listing.Offer,
		listing.Bedrooms,
		listing.Bathrooms,
		listing.RegularPrice,
		listing.DiscountPrice,
		images,
		listing.UserRef,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting listing (user=%s): %w", listing.UserRef, err)
	}

	return nil
}

// GetByID retrieves a listing by ID.
// Returns apperror.ErrNotFound if no listing exists with that ID.
func (l *ListingDB) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	row := l.conn.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)

	listing, err := scanListing(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("listing", id)
		}
		return nil, fmt.Errorf("sqlite: getting listing %s: %w", id, err)
	}

	return listing, nil
}

// ListByUser returns all listings owned by userID in creation order — the
// order the client's list view shows them in.
func (l *ListingDB) ListByUser(ctx context.Context, userID string) ([]model.Listing, error) {
	rows, err := l.conn.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE user_ref = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing listings for user %s: %w", userID, err)
	}
	defer rows.Close()

	// Non-nil empty slice: a user with no listings serializes as [] not null.
	listings := []model.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning listing row: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating listing rows: %w", err)
	}

	return listings, nil
}

// Update persists the full listing record.
func (l *ListingDB) Update(ctx context.Context, listing *model.Listing) error {
	listing.UpdatedAt = time.Now()

	images, err := encodeImageUrls(listing.ImageUrls)
	if err != nil {
		return err
	}

	res, err := l.conn.ExecContext(ctx,
		`UPDATE listings SET name = ?, description = ?, address = ?, type = ?,
		 parking = ?, furnished = ?, offer = ?, bedrooms = ?, bathrooms = ?,
		 regular_price = ?, discount_price = ?, image_urls = ?, updated_at = ?
		 WHERE id = ?`,
		listing.Name,
		listing.Description,
		listing.Address,
		listing.Type,
		listing.Parking,
		listing.Furnished,
		listing.Offer,
		listing.Bedrooms,
		listing.Bathrooms,
		listing.RegularPrice,
		listing.DiscountPrice,
		images,
		listing.UpdatedAt,
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating listing %s: %w", listing.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of listing %s: %w", listing.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("listing", listing.ID)
	}

	return nil
}

// Delete removes a listing by ID.
// Returns apperror.ErrNotFound if no listing exists with that ID.
func (l *ListingDB) Delete(ctx context.Context, id string) error {
	res, err := l.conn.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting listing %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of listing %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("listing", id)
	}

	return nil
}

// scanListing reads one row into a Listing. It takes the Scan function so
// the same code serves both QueryRow and Rows.
func scanListing(scan func(dest ...any) error) (*model.Listing, error) {
	var listing model.Listing
	var images string

	err := scan(
		&listing.ID,
		&listing.Name,
		&listing.Description,
		&listing.Address,
		&listing.Type,
		&listing.Parking,
		&listing.Furnished,
		&listing.Offer,
		&listing.Bedrooms,
		&listing.Bathrooms,
		&listing.RegularPrice,
		&listing.DiscountPrice,
		&images,
		&listing.UserRef,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(images), &listing.ImageUrls); err != nil {
		return nil, fmt.Errorf("decoding image_urls for listing %s: %w", listing.ID, err)
	}

	return &listing, nil
}

func encodeImageUrls(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding image_urls: %w", err)
	}
	return string(b), nil
}
