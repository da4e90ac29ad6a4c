package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/taskboard/internal/auth/passhash"
	"github.com/mmynk/taskboard/internal/models"
	"github.com/mmynk/taskboard/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmptyPassword      = errors.New("password is required")
	ErrEmailExists        = errors.New("email already registered")
)

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage storage.UserStore
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(users storage.UserStore) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: users,
		cost:    passhash.DefaultCost,
	}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost to stay fast.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	a.cost = cost
	return a
}

// ValidateCredential checks that a password was supplied.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if credential == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, credential string) (*models.User, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	// Check if email already exists
	if _, err := a.storage.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := passhash.Hash(credential, a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, hashedPassword)

	// The store re-checks uniqueness under its own lock.
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !passhash.Compare(user.PasswordHash, credential) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
