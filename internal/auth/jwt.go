package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// devIssuer is stamped on every development token and required on
// verification, so a dev token is never confused with any other JWT.
const devIssuer = "event-logger-dev"

// DevTokens mints and verifies HS256 identity tokens for local development.
//
// WHY?
// A Google ID token needs a browser sign-in and expires after an hour. With a
// shared secret, developers and integration tests can mint a token for any
// identity from the command line (see cmd/devtoken) and call the API with
// curl or GraphiQL. The server only accepts these when DEV_TOKEN_SECRET is
// set and the environment is not production.
//
// JWT STRUCTURE:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"dev-ann","email":"ann@example.com","name":"Ann",...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
type DevTokens struct {
	secret []byte
}

// NewDevTokens creates a DevTokens with the given secret.
// Example: DEV_TOKEN_SECRET=$(openssl rand -hex 32)
func NewDevTokens(secret string) (*DevTokens, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: dev token secret must be at least 16 characters")
	}
	return &DevTokens{secret: []byte(secret)}, nil
}

// devClaims mirrors the Google ID token claims we read.
type devClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Mint signs a token carrying id, valid for ttl.
func (d *DevTokens) Mint(id Identity, ttl time.Duration) (string, error) {
	if !id.Complete() {
		return "", errors.New("auth: identity needs subject, email and name")
	}
	if ttl <= 0 {
		return "", errors.New("auth: token lifetime must be positive")
	}

	now := time.Now()
	c := devClaims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    devIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(d.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify implements Verifier.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Token is not expired, and carries an expiry at all
//   - Issuer is devIssuer
//   - Algorithm is HS256 (blocks "alg":"none" and key-confusion tricks)
func (d *DevTokens) Verify(_ context.Context, tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&devClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return d.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(devIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*devClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}

	return &Identity{Subject: c.Subject, Email: c.Email, Name: c.Name}, nil
}
