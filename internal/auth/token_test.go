// ABOUTME: Unit tests for JWT token verification and generation
// ABOUTME: Tests valid tokens, invalid tokens, expired tokens and weak secrets

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-for-jwt-signing-0123456789")

func newTestVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	return v
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("laptop", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "laptop" {
		t.Errorf("Verify() = %q, want %q", got, "laptop")
	}
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier := newTestVerifier(t)

	other, err := NewJWTVerifier([]byte("a-completely-different-secret-value!!"))
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	foreign, _ := other.Generate("laptop", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage token", token: "not-a-jwt-token"},
		{name: "malformed JWT", token: "header.payload.signature"},
		{name: "wrong secret", token: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("laptop", -time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	verifier := newTestVerifier(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, err = verifier.Verify(signed)
	if !errors.Is(err, ErrMissingClaim) {
		t.Errorf("Verify() error = %v, want ErrMissingClaim", err)
	}

	if _, err := verifier.Generate("", time.Hour); !errors.Is(err, ErrMissingClaim) {
		t.Errorf("Generate(\"\") error = %v, want ErrMissingClaim", err)
	}
}

func TestJWTVerifier_RejectsOtherAlgorithms(t *testing.T) {
	verifier := newTestVerifier(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "laptop",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestNewJWTVerifier_WeakSecret(t *testing.T) {
	if _, err := NewJWTVerifier([]byte("short")); !errors.Is(err, ErrWeakSecret) {
		t.Errorf("NewJWTVerifier() error = %v, want ErrWeakSecret", err)
	}
}
