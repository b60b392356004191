// ABOUTME: JWT token verification and minting for API bearer tokens
// ABOUTME: Uses HS256 signing with a configured secret

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into every token this package mints.
const Issuer = "personal-crm"

// MinSecretLength is the shortest HS256 secret accepted.
const MinSecretLength = 32

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrWeakSecret   = errors.New("jwt secret too short")
)

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) (subject string, err error)
}

// JWTVerifier implements TokenVerifier using HS256 signed JWTs
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier. Secrets shorter than MinSecretLength are rejected.
func NewJWTVerifier(secret []byte) (*JWTVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretLength, len(secret))
	}
	return &JWTVerifier{secret: secret}, nil
}

// Verify validates the token and returns its "sub" claim.
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return sub, nil
}

// Generate mints a token for subject that expires after expiresIn.
func (v *JWTVerifier) Generate(subject string, expiresIn time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": Issuer,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
