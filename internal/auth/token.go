// Package auth issues and verifies the HS256 token pairs used by the API.
// The rest of the code never touches JWTs: the HTTP boundary turns a bearer
// token into a Principal once and passes that value down explicitly.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tiffin/internal/core"
)

// Principal is the authenticated caller as seen by every service operation.
type Principal struct {
	UserID int64
	Email  string
	Role   core.Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == core.RoleAdmin
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager signs access and refresh tokens with separate secrets so a
// leaked refresh secret cannot mint access tokens and vice versa.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssuePair signs a fresh access/refresh token pair for the user.
func (tm *TokenManager) IssuePair(userID int64, email string, role core.Role) (TokenPair, error) {
	access, err := tm.sign(userID, email, role, tm.accessSecret, tm.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := tm.sign(userID, email, role, tm.refreshSecret, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (tm *TokenManager) sign(userID int64, email string, role core.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// VerifyAccess validates an access token and returns its principal.
func (tm *TokenManager) VerifyAccess(token string) (Principal, error) {
	return verify(token, tm.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its principal.
func (tm *TokenManager) VerifyRefresh(token string) (Principal, error) {
	return verify(token, tm.refreshSecret)
}

func verify(tokenStr string, secret []byte) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: userID, Email: c.Email, Role: core.Role(c.Role)}, nil
}
