package model

import "time"

// Listing types. A listing is either for sale or for rent — the two values
// the search UI filters on.
const (
	TypeSale = "sale"
	TypeRent = "rent"
)

// Image limits for a listing. At least one image is required to publish,
// and at most six are accepted per listing.
const (
	MinListingImages = 1
	MaxListingImages = 6
)

// Listing represents a property listing.
//
// ImageUrls holds relative upload paths (e.g. "uploads/crk3...jpg") in the
// order the owner arranged them; the first one is the cover image. The
// sequence is stored as a JSON array in SQLite since the element count is
// bounded at six and the paths are only ever read back as a whole.
//
// DiscountPrice is only meaningful when Offer is true, and must then be
// strictly lower than RegularPrice. Validation lives in the service layer.
type Listing struct {
	ID            string    `json:"id"            db:"id"`
	Name          string    `json:"name"          db:"name"`
	Description   string    `json:"description"   db:"description"`
	Address       string    `json:"address"       db:"address"`
	Type          string    `json:"type"          db:"type"` // "sale" or "rent"
	Parking       bool      `json:"parking"       db:"parking"`
	Furnished     bool      `json:"furnished"     db:"furnished"`
	Offer         bool      `json:"offer"         db:"offer"`
	Bedrooms      int       `json:"bedrooms"      db:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"     db:"bathrooms"`
	RegularPrice  float64   `json:"regularPrice"  db:"regular_price"`
	DiscountPrice float64   `json:"discountPrice" db:"discount_price"`
	ImageUrls     []string  `json:"imageUrls"     db:"image_urls"`
	UserRef       string    `json:"userRef"       db:"user_ref"` // owning user id
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}
