package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/auth"
	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/repository"
)

// UserService handles profile updates and account deletion.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// UserUpdate carries the optional fields of a profile update. A nil-ish
// zero value ("") means "leave unchanged" — the client never sends empty
// strings for fields it isn't changing, and an empty password in the form
// means the user didn't want to change it.
type UserUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

// Update applies a partial update to the user's own account.
//
// OWNERSHIP: actingUserID must equal targetID. Anything else is an
// unauthorized error — users can only update their own account. The check
// lives here, not in the handler, so every caller gets it.
//
// Only fields present (non-empty) in the update are changed. A non-empty
// password is rehashed; the hash is stored and the plaintext discarded. The
// returned record never includes any password material (model.User excludes
// it from serialization).
func (s *UserService) Update(ctx context.Context, actingUserID, targetID string, update UserUpdate) (*model.User, error) {
	if actingUserID != targetID {
		return nil, apperror.Unauthorized("You can only update your own account!")
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(update.Username); username != "" {
		user.Username = username
	}
	if email := strings.ToLower(strings.TrimSpace(update.Email)); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperror.ValidationFailed("email", "Please provide a valid email address!")
		}
		user.Email = email
	}
	if update.Avatar != "" {
		user.Avatar = update.Avatar
	}
	if update.Password != "" {
		hash, err := s.passwords.Hash(update.Password)
		if err != nil {
			return nil, fmt.Errorf("service/user: hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: updating user %s: %w", targetID, err)
	}

	s.logger.Info("user updated", slog.String("userID", user.ID))

	return user, nil
}

// Delete removes the user's own account. Same ownership rule as Update.
func (s *UserService) Delete(ctx context.Context, actingUserID, targetID string) error {
	if actingUserID != targetID {
		return apperror.Unauthorized("You can only delete your own account!")
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("userID", targetID))
	return nil
}

// GetByID returns the user for the given internal ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}
