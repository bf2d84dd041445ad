// Package auth provides identity tokens, password hashing, the LINE OAuth
// client and the bearer-token guard for the character studio API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Email/password: POST /v1/auth/login verifies the argon2id hash and
//     returns a signed token in the JSON body.
//  2. LINE: /v1/auth/line/login redirects to LINE; LINE calls back
//     /v1/auth/line/callback with a code; the server exchanges it, finds or
//     creates the user, then redirects the browser to the frontend with
//     ?token=... attached.
//  3. Every protected request carries "Authorization: Bearer <token>".
//     Guard verifies it, loads the user, and stores the user in the
//     request context.
//
// Tokens are stateless HS256 JWTs carrying {userId} plus exp/iat/iss.
// There is no revocation list: a token is valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/character-studio/internal/result"
)

const issuer = "character-studio"

// DefaultTokenTTL applies when NewTokenService is given a non-positive TTL.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is wrapped by every Verify failure.
var ErrInvalidToken = errors.New("invalid token")

// Payload is what a token asserts about its bearer.
type Payload struct {
	UserID int64 `json:"userId"`
}

// claims is the JWT body: the payload plus the standard registered claims.
type claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies identity tokens.
//
// It holds the HMAC secret in memory and is safe for concurrent use: nothing
// in it is mutated after construction.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for p with the configured lifetime.
//
// Signing with an in-memory HMAC key practically never fails, but the
// failure variant is still returned so callers handle it like any other
// provider call.
func (s *TokenService) Issue(p Payload) result.Result[string] {
	return s.IssueWithDuration(p, s.ttl)
}

// IssueWithDuration signs a token with a custom lifetime. A negative d
// produces an already-expired token, which tests use.
func (s *TokenService) IssueWithDuration(p Payload, d time.Duration) result.Result[string] {
	now := time.Now()

	c := claims{
		UserID: p.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return result.Err[string](fmt.Errorf("auth: signing token: %w", err))
	}
	return result.Ok(signed)
}

// Verify checks signature, algorithm, issuer and expiry, then returns the payload.
//
// ALGORITHM CONFUSION ATTACK:
// Without pinning the algorithm, an attacker could send a token signed with
// "none". jwt.WithValidMethods rejects anything but HS256.
func (s *TokenService) Verify(tokenStr string) result.Result[Payload] {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return result.Err[Payload](fmt.Errorf("%w: token expired", ErrInvalidToken))
		}
		return result.Err[Payload](fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return result.Err[Payload](fmt.Errorf("%w: invalid claims", ErrInvalidToken))
	}
	if c.UserID <= 0 {
		return result.Err[Payload](fmt.Errorf("%w: token has no userId", ErrInvalidToken))
	}

	return result.Ok(Payload{UserID: c.UserID})
}

// Decode reads the payload WITHOUT checking the signature or expiry.
// Diagnostic use only; never authorize a request with it.
func (s *TokenService) Decode(tokenStr string) result.Result[Payload] {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &c); err != nil {
		return result.Err[Payload](fmt.Errorf("auth: decoding token: %w", err))
	}
	return result.Ok(Payload{UserID: c.UserID})
}
