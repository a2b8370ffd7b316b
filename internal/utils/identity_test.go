package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestVerifier() *IdentityVerifier {
	return NewIdentityVerifier("test-secret-key-for-testing", "https://id.example.com", "marketplace")
}

func TestIdentityVerifier_RoundTrip(t *testing.T) {
	v := newTestVerifier()
	token, err := v.Issue(IdentityClaims{
		Email:     "lina@example.com",
		FirstName: "Lina",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-42",
		},
	}, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("Subject = %q, expected %q", claims.Subject, "user-42")
	}
	if claims.Email != "lina@example.com" {
		t.Errorf("Email = %q, expected %q", claims.Email, "lina@example.com")
	}
	if claims.FirstName != "Lina" {
		t.Errorf("FirstName = %q, expected %q", claims.FirstName, "Lina")
	}
}

func TestIdentityVerifier_InvalidTokens(t *testing.T) {
	v := newTestVerifier()
	invalidTokens := []string{
		"",
		"invalid",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalidTokens {
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidIdentityToken) {
			t.Errorf("Verify(%q) error = %v, expected ErrInvalidIdentityToken", token, err)
		}
	}
}

func TestIdentityVerifier_WrongSecret(t *testing.T) {
	token, _ := NewIdentityVerifier("original-secret", "", "").Issue(IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}, time.Hour)

	if _, err := NewIdentityVerifier("different-secret", "", "").Verify(token); err == nil {
		t.Error("Verify should fail with wrong secret")
	}
}

func TestIdentityVerifier_Expired(t *testing.T) {
	v := newTestVerifier()
	token, _ := v.Issue(IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}, -time.Minute)

	if _, err := v.Verify(token); err == nil {
		t.Error("Verify should reject an expired token")
	}
}

func TestIdentityVerifier_WrongAudience(t *testing.T) {
	issuer := NewIdentityVerifier("shared", "https://id.example.com", "other-app")
	token, _ := issuer.Issue(IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}, time.Hour)

	verifier := NewIdentityVerifier("shared", "https://id.example.com", "marketplace")
	if _, err := verifier.Verify(token); err == nil {
		t.Error("Verify should reject a token for another audience")
	}
}

func TestIdentityVerifier_MissingSubject(t *testing.T) {
	v := newTestVerifier()
	token, _ := v.Issue(IdentityClaims{Email: "x@example.com"}, time.Hour)

	if _, err := v.Verify(token); err == nil {
		t.Error("Verify should reject a token without a subject")
	}
}
