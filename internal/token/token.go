// Package token issues and verifies the service's self-signed credentials.
// Access and refresh tokens are separate classes with independent secrets and
// lifetimes; the class is always chosen by the caller, never inferred from the
// token itself, so a refresh token can never pass where an access token is
// required.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roster-hq/roster/internal/accounts"
)

// Class selects which secret and lifetime a token is signed or verified with.
type Class int

const (
	// ClassAccess is the short-lived credential presented on each request.
	ClassAccess Class = iota
	// ClassRefresh is the longer-lived credential used only to mint new pairs.
	ClassRefresh
)

var (
	// ErrSigning indicates the signing primitive failed.
	ErrSigning = errors.New("token: signing failed")
	// ErrInvalid covers tampered, expired, malformed, and wrong-class tokens.
	ErrInvalid = errors.New("token: validation failed")
)

// Claims are the values embedded in every signed credential.
type Claims struct {
	jwt.RegisteredClaims
	Email     string             `json:"email"`
	Privilege accounts.Privilege `json:"role"`
}

// ClassConfig holds the secret and lifetime for one token class.
type ClassConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Signer signs and verifies both token classes.
type Signer struct {
	access  ClassConfig
	refresh ClassConfig
}

// NewSigner constructs a Signer from the two class configurations.
func NewSigner(access, refresh ClassConfig) *Signer {
	return &Signer{access: access, refresh: refresh}
}

func (s *Signer) config(class Class) ClassConfig {
	if class == ClassRefresh {
		return s.refresh
	}
	return s.access
}

// Sign encodes the email and privilege into a signed credential of the given
// class, with the expiration derived from that class's TTL.
func (s *Signer) Sign(email string, privilege accounts.Privilege, class Class) (string, error) {
	cfg := s.config(class)
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
		Email:     email,
		Privilege: privilege,
	})
	signed, err := tok.SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Verify checks the credential's signature, structure, and expiration against
// the given class and returns the embedded claims.
func (s *Signer) Verify(raw string, class Class) (*Claims, error) {
	cfg := s.config(class)
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !tok.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}
