package auth

import (
	"testing"
	"time"

	"tiffin/internal/core"
)

func newTestManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerifyPair(t *testing.T) {
	tm := newTestManager()
	pair, err := tm.IssuePair(42, "a@example.com", core.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := tm.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if p.UserID != 42 || p.Email != "a@example.com" || p.Role != core.RoleUser {
		t.Fatalf("principal = %+v", p)
	}

	p, err = tm.VerifyRefresh(pair.RefreshToken)
	if err != nil || p.UserID != 42 {
		t.Fatalf("verify refresh = %+v, %v", p, err)
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	tm := newTestManager()
	pair, err := tm.IssuePair(1, "a@example.com", core.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tm.VerifyAccess(pair.RefreshToken); err == nil {
		t.Fatal("refresh token must not verify as access token")
	}
	if _, err := tm.VerifyRefresh(pair.AccessToken); err == nil {
		t.Fatal("access token must not verify as refresh token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("s1", "s2", -time.Minute, -time.Minute)
	pair, err := tm.IssuePair(1, "a@example.com", core.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tm.VerifyAccess(pair.AccessToken); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	tm := newTestManager()
	if _, err := tm.VerifyAccess("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestIsAdmin(t *testing.T) {
	if (Principal{Role: core.RoleUser}).IsAdmin() {
		t.Fatal("USER must not be admin")
	}
	if !(Principal{Role: core.RoleAdmin}).IsAdmin() {
		t.Fatal("ADMIN must be admin")
	}
}
