package auth

import (
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := NewTokenManager("test-secret-key-123", time.Hour)
	token, err := mgr.Issue("ops")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := mgr.Validate(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Operator != "ops" {
		t.Errorf("expected operator=ops, got %s", claims.Operator)
	}
	if claims.Subject != "ops" {
		t.Errorf("expected subject=ops, got %s", claims.Subject)
	}
	if claims.ExpiresAt == nil {
		t.Error("expected an expiry")
	}
}

func TestNoExpiryWhenTTLZero(t *testing.T) {
	mgr := NewTokenManager("secret", 0)
	token, _ := mgr.Issue("ci")
	claims, err := mgr.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Errorf("expected no expiry, got %v", claims.ExpiresAt)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	mgr := NewTokenManager("secret", time.Nanosecond)
	token, err := mgr.Issue("ops")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Expiry has second precision.
	time.Sleep(1100 * time.Millisecond)
	if _, err := mgr.Validate(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	a := NewTokenManager("secret-a", time.Hour)
	b := NewTokenManager("secret-b", time.Hour)
	token, _ := a.Issue("ops")
	if _, err := b.Validate(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateGarbage(t *testing.T) {
	mgr := NewTokenManager("secret", time.Hour)
	for _, s := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := mgr.Validate(s); err != ErrInvalidToken {
			t.Errorf("Validate(%q) = %v, want ErrInvalidToken", s, err)
		}
	}
}
