// Package auth turns a bearer token into the caller's User record.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The browser signs in with Google and receives an ID token.
//  2. Every GraphQL request carries it as "Authorization: Bearer <token>".
//  3. Middleware asks a Verifier for the identity inside the token
//     (subject, email, name).
//  4. The identity is upserted into the users table and the resulting
//     *model.User is stored in the request context.
//  5. Resolvers read it back with UserFromContext.
//
// Any failure in steps 3 or 4 leaves the request anonymous instead of
// rejecting it. Resolvers decide what an anonymous caller may do.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidToken is returned (wrapped) by every Verifier when a token cannot
// be trusted: bad signature, wrong audience, expired, or malformed.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is what a verified token says about its bearer.
type Identity struct {
	Subject string // stable external id ("sub")
	Email   string
	Name    string
}

// Complete reports whether every field the users table needs is present.
func (id Identity) Complete() bool {
	return id.Subject != "" && id.Email != "" && id.Name != ""
}

// Verifier validates a raw token and returns the identity it carries.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ChainVerifier tries each verifier in order and returns the first success.
// It lets development builds accept locally minted tokens alongside real
// Google ID tokens.
type ChainVerifier []Verifier

func (c ChainVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: no verifiers configured", ErrInvalidToken)
	}

	var errs []error
	for _, v := range c {
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
