// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier shape:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, never concrete drivers, so tests can
// substitute in-memory mocks and the storage backend can change without
// touching business rules.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/auth"
	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/repository"
)

// AuthService handles registration and sign-in.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the authenticated user and the issued JWT so the HTTP
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignUp registers a new account.
//
// Registration does NOT sign the user in — no token is issued here. That is
// the deliberate contract: the client redirects to the sign-in form after a
// successful sign-up.
//
// Duplicate emails surface as apperror.ErrConflict ("User already exists!"),
// enforced both by a pre-check and by the UNIQUE constraint underneath.
func (s *AuthService) SignUp(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.ValidationFailed("", "Please fill in all input!")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "Please provide a valid email address!")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("User already exists!")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user (email=%s): %w", email, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// SignIn verifies the credentials and issues a JWT access token.
//
// Both an unknown email and a wrong password return the same
// "Wrong credentials!" unauthorized error — the response must not reveal
// which half was wrong.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Please fill in all input!")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("Wrong credentials!")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("Wrong credentials!")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// GoogleSignIn upserts an account by email from a Google profile and issues
// a token.
//
// First Google sign-in creates the account: the username is derived from
// the display name plus a random suffix (display names aren't unique), and
// a random password is generated and hashed so the row satisfies the same
// schema as a regular account. Subsequent sign-ins just refresh the avatar.
func (s *AuthService) GoogleSignIn(ctx context.Context, name, email, photo string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "Please provide a valid email address!")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if photo != "" && user.Avatar != photo {
			user.Avatar = photo
			if err := s.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("service/auth: refreshing avatar for user %s: %w", user.ID, err)
			}
		}
	default:
		// No account yet — create one from the Google profile.
		hash, hashErr := s.passwords.Hash(xid.New().String())
		if hashErr != nil {
			return nil, fmt.Errorf("service/auth: hashing generated password: %w", hashErr)
		}

		user = &model.User{
			Username:     googleUsername(name),
			Email:        email,
			Avatar:       photo,
			PasswordHash: hash,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating google user (email=%s): %w", email, err)
		}

		s.logger.Info("user created via Google",
			slog.String("userID", user.ID),
			slog.String("username", user.Username),
		)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// ValidateToken validates a JWT string and returns the userID it encodes.
// Thin delegation so callers only need the service package.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// googleUsername turns a Google display name into a username:
// "Sakif Rahman" → "sakifrahman" + 4 random chars from an xid.
func googleUsername(name string) string {
	base := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	if base == "" {
		base = "user"
	}
	suffix := xid.New().String()
	return base + suffix[len(suffix)-4:]
}
