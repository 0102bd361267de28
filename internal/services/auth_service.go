package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tiffin/internal/auth"
	"tiffin/internal/core"
	"tiffin/internal/storage"
)

// AuthService handles registration, login and token refresh.
type AuthService struct {
	storage *storage.SQLiteRepository
	tokens  *auth.TokenManager
}

func NewAuthService(storage *storage.SQLiteRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{storage: storage, tokens: tokens}
}

type AuthResult struct {
	User   core.User      `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Register creates a user with a bcrypt-hashed password and signs them in.
// An empty role defaults to USER.
func (s *AuthService) Register(ctx context.Context, email, name, password, role string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return AuthResult{}, fmt.Errorf("%w: invalid email", core.ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return AuthResult{}, fmt.Errorf("%w: password must be at least 8 characters", core.ErrInvalidCredentials)
	}
	r, err := core.ParseRole(role)
	if err != nil {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, email, strings.TrimSpace(name), string(hash), r)
	if err != nil {
		return AuthResult{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return AuthResult{User: user, Tokens: pair}, nil
}

// Login verifies credentials. A missing user and a wrong password report the
// same error so the endpoint does not leak which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, hash, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return AuthResult{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return AuthResult{}, core.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return AuthResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The user is
// re-read so role changes take effect on refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	p, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return AuthResult{}, core.ErrInvalidCredentials
	}

	user, err := s.storage.GetUserByID(ctx, p.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return AuthResult{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return AuthResult{User: user, Tokens: pair}, nil
}
