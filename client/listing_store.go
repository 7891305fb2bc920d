package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// ListingState is the snapshot of the listing collection store: the
// signed-in user's listings plus the one listing currently in detail view.
type ListingState struct {
	// Listings holds the user's listings in server order. Never nil.
	Listings []Listing
	// CurrentListing is the detail-view record, nil when none is loaded.
	CurrentListing *Listing
	// Loading is true while a listing operation is in flight.
	Loading bool
	// Err is the reason of the most recent failure, "" when none.
	Err string

	// Fencing tokens. Each fetch start claims the next token for its kind;
	// a settle event carrying an older token than the latest start is
	// stale and discarded.
	listSeq   uint64
	detailSeq uint64
}

// Listing collection store events.
type (
	listFetchStarted   struct{}
	detailFetchStarted struct{}
	listingOpStarted   struct{}

	listingFailed struct {
		reason string
	}
	listFetchFailed struct {
		token  uint64
		reason string
	}
	detailFetchFailed struct {
		token  uint64
		reason string
	}

	listFetched struct {
		token    uint64
		listings []Listing
	}
	detailFetched struct {
		token   uint64
		listing Listing
	}

	listingCreated struct{ listing Listing }
	listingUpdated struct{ listing Listing }
	listingDeleted struct{ id string }

	listingsCleared       struct{}
	currentListingCleared struct{}
	listingErrorCleared   struct{}
)

func reduceListing(s ListingState, ev event) ListingState {
	switch ev := ev.(type) {
	case listFetchStarted:
		s.listSeq++
		s.Loading = true
		s.Err = ""
	case detailFetchStarted:
		s.detailSeq++
		s.Loading = true
		s.Err = ""
	case listingOpStarted:
		s.Loading = true
		s.Err = ""
	case listingFailed:
		s.Loading = false
		s.Err = ev.reason
	case listFetchFailed:
		if ev.token != s.listSeq {
			return s // superseded by a newer fetch
		}
		s.Loading = false
		s.Err = ev.reason
	case detailFetchFailed:
		if ev.token != s.detailSeq {
			return s
		}
		s.Loading = false
		s.Err = ev.reason
	case listFetched:
		if ev.token != s.listSeq {
			return s
		}
		s.Listings = ev.listings
		s.Loading = false
		s.Err = ""
	case detailFetched:
		if ev.token != s.detailSeq {
			return s
		}
		listing := ev.listing
		s.CurrentListing = &listing
		s.Loading = false
		s.Err = ""
	case listingCreated:
		s.Listings = append(append([]Listing(nil), s.Listings...), ev.listing)
		listing := ev.listing
		s.CurrentListing = &listing
		s.Loading = false
		s.Err = ""
	case listingUpdated:
		listing := ev.listing
		s.CurrentListing = &listing
		// Keep the collection entry in step with the detail record.
		updated := make([]Listing, len(s.Listings))
		copy(updated, s.Listings)
		for i := range updated {
			if updated[i].ID == listing.ID {
				updated[i] = listing
			}
		}
		s.Listings = updated
		s.Loading = false
		s.Err = ""
	case listingDeleted:
		remaining := make([]Listing, 0, len(s.Listings))
		for _, l := range s.Listings {
			if l.ID != ev.id {
				remaining = append(remaining, l)
			}
		}
		s.Listings = remaining
		// The detail slot must not keep serving a record that no longer
		// exists.
		if s.CurrentListing != nil && s.CurrentListing.ID == ev.id {
			s.CurrentListing = nil
		}
		s.Loading = false
		s.Err = ""
	case listingsCleared:
		s.Listings = []Listing{}
	case currentListingCleared:
		s.CurrentListing = nil
	case listingErrorCleared:
		s.Err = ""
	}
	return s
}

// ListingStore holds the listing collection and detail view and runs the
// listing operations: create, fetch, update, delete.
type ListingStore struct {
	api *Client
	st  *store[ListingState]
}

// NewListingStore creates a store with an empty collection.
func NewListingStore(api *Client) *ListingStore {
	return &ListingStore{
		api: api,
		st:  newStore(ListingState{Listings: []Listing{}}, reduceListing),
	}
}

// Snapshot returns the current collection state.
func (l *ListingStore) Snapshot() ListingState { return l.st.snapshot() }

// Subscribe registers fn to observe every state change. The returned
// function unsubscribes.
func (l *ListingStore) Subscribe(fn func(ListingState)) func() { return l.st.subscribe(fn) }

// Close stops the store's event loop.
func (l *ListingStore) Close() { l.st.close() }

// validateListing applies the form rules before anything touches the
// network. Returned errors are *ValidationError, field-addressed so the
// caller can surface them next to the offending input.
func validateListing(listing Listing) error {
	if len(listing.ImageUrls) < 1 {
		return &ValidationError{Field: "imageUrls", Message: "You must upload at least one image."}
	}
	if len(listing.ImageUrls) > 6 {
		return &ValidationError{Field: "imageUrls", Message: "You can only upload a maximum of 6 images."}
	}
	if listing.Offer && listing.DiscountPrice >= listing.RegularPrice {
		return &ValidationError{Field: "discountPrice", Message: "Discount price must be lower than regular price"}
	}
	return nil
}

// CreateListing validates and submits a new listing. Validation failures
// return a *ValidationError without dispatching any event or touching the
// network. On success the created record joins the collection and becomes
// the detail record.
func (l *ListingStore) CreateListing(ctx context.Context, listing Listing) (*Listing, error) {
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	l.st.dispatch(listingOpStarted{})
	raw, err := l.api.Call(ctx, http.MethodPost, "/api/listing/create", listing)
	if err != nil {
		l.st.dispatch(listingFailed{reason: reasonOf(err)})
		return nil, err
	}
	var created Listing
	if err := json.Unmarshal(raw, &created); err != nil || created.ID == "" {
		failure := &APIError{Message: genericErrorMessage}
		l.st.dispatch(listingFailed{reason: failure.Message})
		return nil, failure
	}
	l.st.dispatch(listingCreated{listing: created})
	return &created, nil
}

// FetchListing loads one listing into the detail slot. If another
// FetchListing starts before this one settles, this result is discarded.
func (l *ListingStore) FetchListing(ctx context.Context, id string) (*Listing, error) {
	snap := l.st.dispatch(detailFetchStarted{})
	token := snap.detailSeq

	raw, err := l.api.Call(ctx, http.MethodGet, "/api/listing/get/"+id, nil)
	if err != nil {
		l.st.dispatch(detailFetchFailed{token: token, reason: reasonOf(err)})
		return nil, err
	}
	var listing Listing
	if err := json.Unmarshal(raw, &listing); err != nil || listing.ID == "" {
		failure := &APIError{Message: genericErrorMessage}
		l.st.dispatch(detailFetchFailed{token: token, reason: failure.Message})
		return nil, failure
	}
	l.st.dispatch(detailFetched{token: token, listing: listing})
	return &listing, nil
}

// FetchUserListings replaces the collection with the given user's listings
// in server order. Results of superseded fetches are discarded.
func (l *ListingStore) FetchUserListings(ctx context.Context, userID string) ([]Listing, error) {
	snap := l.st.dispatch(listFetchStarted{})
	token := snap.listSeq

	raw, err := l.api.Call(ctx, http.MethodGet, "/api/user/listings/"+userID, nil)
	if err != nil {
		l.st.dispatch(listFetchFailed{token: token, reason: reasonOf(err)})
		return nil, err
	}
	var listings []Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		failure := &APIError{Message: genericErrorMessage}
		l.st.dispatch(listFetchFailed{token: token, reason: failure.Message})
		return nil, failure
	}
	if listings == nil {
		listings = []Listing{}
	}
	l.st.dispatch(listFetched{token: token, listings: listings})
	return listings, nil
}

// UpdateListing validates and submits changes to an owned listing. The
// updated record replaces both the detail slot and its collection entry.
func (l *ListingStore) UpdateListing(ctx context.Context, id string, listing Listing) (*Listing, error) {
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	l.st.dispatch(listingOpStarted{})
	raw, err := l.api.Call(ctx, http.MethodPut, "/api/listing/update/"+id, listing)
	if err != nil {
		l.st.dispatch(listingFailed{reason: reasonOf(err)})
		return nil, err
	}
	var payload struct {
		Listing Listing `json:"listing"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Listing.ID == "" {
		failure := &APIError{Message: genericErrorMessage}
		l.st.dispatch(listingFailed{reason: failure.Message})
		return nil, failure
	}
	l.st.dispatch(listingUpdated{listing: payload.Listing})
	return &payload.Listing, nil
}

// DeleteListing removes a listing. On success the entry leaves the
// collection (order of the rest preserved) and, if the detail slot held
// the same record, it is cleared too.
func (l *ListingStore) DeleteListing(ctx context.Context, id string) error {
	l.st.dispatch(listingOpStarted{})
	if _, err := l.api.Call(ctx, http.MethodDelete, "/api/listing/delete/"+id, nil); err != nil {
		l.st.dispatch(listingFailed{reason: reasonOf(err)})
		return err
	}
	l.st.dispatch(listingDeleted{id: id})
	return nil
}

// ClearListings empties the collection, typically on sign-out.
func (l *ListingStore) ClearListings() {
	l.st.dispatch(listingsCleared{})
}

// ClearCurrentListing drops the detail record.
func (l *ListingStore) ClearCurrentListing() {
	l.st.dispatch(currentListingCleared{})
}

// ClearError drops the recorded error. Idempotent.
func (l *ListingStore) ClearError() {
	l.st.dispatch(listingErrorCleared{})
}
