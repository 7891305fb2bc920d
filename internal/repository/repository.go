// Package repository defines the storage interfaces consumed by the service
// layer. Services depend on these interfaces, never on a concrete driver —
// the SQLite implementation lives in repository/sqlite, and tests substitute
// in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/estate/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	ListByUser(ctx context.Context, userID string) ([]model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	Delete(ctx context.Context, id string) error
}
