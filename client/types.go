package client

// User is the identity record held by the auth session store. It never
// carries password material — the API strips it before responding.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"` // URL or relative upload path
}

// Listing is a property record as the API serves it.
type Listing struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Address       string   `json:"address"`
	Type          string   `json:"type"` // "sale" or "rent"
	Parking       bool     `json:"parking"`
	Furnished     bool     `json:"furnished"`
	Offer         bool     `json:"offer"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	RegularPrice  float64  `json:"regularPrice"`
	DiscountPrice float64  `json:"discountPrice"`
	ImageUrls     []string `json:"imageUrls"`
	UserRef       string   `json:"userRef"`
}

// UserUpdate carries the optional fields of a profile update. Zero-value
// fields are omitted from the request body entirely — the server treats
// absence as "leave unchanged", and an empty password must never be sent.
type UserUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Password string `json:"password,omitempty"`
}
