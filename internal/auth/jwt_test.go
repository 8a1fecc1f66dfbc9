package auth

import (
	"strings"
	"testing"

	"girvi-backend/internal/domain/user"
	"girvi-backend/pkg/id"
)

func testUser() *user.User {
	return &user.User{
		UserID: id.NewID32(),
		Email:  "owner@girvi.local",
		Name:   "Shop Owner",
	}
}

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test-secret", "girvi-backend", 1)
	u := testUser()

	tok, exp, err := m.GenerateToken(u)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if exp.IsZero() {
		t.Fatal("expiry not set")
	}

	claims, err := m.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != u.UserID || claims.Email != u.Email {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.Issuer != "girvi-backend" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	m1 := NewJWTManager("secret-one", "girvi-backend", 1)
	m2 := NewJWTManager("secret-two", "girvi-backend", 1)

	tok, _, err := m1.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := m2.ValidateToken(tok); err == nil {
		t.Fatal("expected signature error, got nil")
	}
}

func TestValidate_Garbage(t *testing.T) {
	m := NewJWTManager("test-secret", "girvi-backend", 1)
	if _, err := m.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestValidate_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", "girvi-backend", -1) // already expired
	tok, _, err := m.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	_, err = m.ValidateToken(tok)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("want expiry error, got %v", err)
	}
}
