package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/taskboard/internal/auth"
)

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	Email string
	Token string
}

// AuthService handles account registration and login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Signup creates a new user account.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	s.logger.Info("Signup request", "email", email)

	if email == "" || password == "" {
		return nil, invalid("Email and password required")
	}

	user, err := s.authenticator.Register(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			s.logger.Warn("Signup rejected", "email", email, "error", err)
			return nil, &Error{Kind: ErrConflict, Message: "User already exists"}
		}
		s.logger.Error("Signup failed", "email", email, "error", err)
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "email", email, "error", err)
		return nil, err
	}

	s.logger.Info("User registered successfully", "email", user.Email)
	return &AuthResult{Email: user.Email, Token: token}, nil
}

// Login checks the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	s.logger.Info("Login request", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("Login failed", "email", email)
			return nil, &Error{Kind: ErrUnauthorized, Message: "Invalid credentials"}
		}
		s.logger.Error("Login failed", "email", email, "error", err)
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "email", email, "error", err)
		return nil, err
	}

	s.logger.Info("User logged in successfully", "email", user.Email)
	return &AuthResult{Email: user.Email, Token: token}, nil
}
