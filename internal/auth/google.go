package auth

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// Google signs ID tokens with one of these two issuer strings.
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// payloadValidator is the part of *idtoken.Validator we use. Tests swap it
// for a fake so they never reach Google's certificate endpoint.
type payloadValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier checks Google Sign-In ID tokens.
//
// idtoken fetches and caches Google's public keys, verifies the signature
// and expiry, and checks the audience against our OAuth client ID.
type GoogleVerifier struct {
	clientID  string
	validator payloadValidator
}

// NewGoogleVerifier creates a verifier for tokens issued to clientID.
// The HTTP client is only used to download Google's signing certificates.
func NewGoogleVerifier(ctx context.Context, clientID string, httpClient *http.Client) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("auth: google client ID must not be empty")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("auth: creating google token validator: %w", err)
	}

	return &GoogleVerifier{clientID: clientID, validator: v}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	payload, err := g.validator.Validate(ctx, token, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !googleIssuers[payload.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, payload.Issuer)
	}

	return &Identity{
		Subject: payload.Subject,
		Email:   stringClaim(payload.Claims, "email"),
		Name:    stringClaim(payload.Claims, "name"),
	}, nil
}

// stringClaim reads a string claim, returning "" if it is absent or not a
// string.
func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
