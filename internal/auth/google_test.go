package auth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/idtoken"
)

type fakePayloadValidator struct {
	payload     *idtoken.Payload
	err         error
	gotAudience string
	gotToken    string
}

func (f *fakePayloadValidator) Validate(_ context.Context, token, audience string) (*idtoken.Payload, error) {
	f.gotToken = token
	f.gotAudience = audience
	return f.payload, f.err
}

func TestGoogleVerifier_Verify(t *testing.T) {
	fake := &fakePayloadValidator{payload: &idtoken.Payload{
		Issuer:  "https://accounts.google.com",
		Subject: "1234567890",
		Claims:  map[string]any{"email": "ann@example.com", "name": "Ann", "email_verified": true},
	}}
	g := &GoogleVerifier{clientID: "client-1", validator: fake}

	id, err := g.Verify(context.Background(), "raw-token")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	want := Identity{Subject: "1234567890", Email: "ann@example.com", Name: "Ann"}
	if *id != want {
		t.Errorf("Verify() = %+v, want %+v", *id, want)
	}
	if fake.gotAudience != "client-1" || fake.gotToken != "raw-token" {
		t.Errorf("validator called with (%q, %q)", fake.gotToken, fake.gotAudience)
	}
}

func TestGoogleVerifier_MissingClaimsYieldIncompleteIdentity(t *testing.T) {
	fake := &fakePayloadValidator{payload: &idtoken.Payload{
		Issuer:  "accounts.google.com",
		Subject: "1234567890",
		Claims:  map[string]any{"email": 42},
	}}
	g := &GoogleVerifier{clientID: "client-1", validator: fake}

	id, err := g.Verify(context.Background(), "raw-token")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.Complete() {
		t.Errorf("identity %+v should be incomplete", *id)
	}
}

func TestGoogleVerifier_Rejections(t *testing.T) {
	tests := []struct {
		name string
		fake *fakePayloadValidator
	}{
		{"validator error", &fakePayloadValidator{err: errors.New("idtoken: audience provided does not match")}},
		{"foreign issuer", &fakePayloadValidator{payload: &idtoken.Payload{Issuer: "https://evil.example.com", Subject: "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GoogleVerifier{clientID: "client-1", validator: tt.fake}
			if _, err := g.Verify(context.Background(), "raw"); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewGoogleVerifier_EmptyClientID(t *testing.T) {
	if _, err := NewGoogleVerifier(context.Background(), "", nil); err == nil {
		t.Fatal("NewGoogleVerifier() should reject an empty client ID")
	}
}

type stubVerifier struct {
	id  *Identity
	err error
}

func (s stubVerifier) Verify(context.Context, string) (*Identity, error) {
	return s.id, s.err
}

func TestChainVerifier(t *testing.T) {
	fail := stubVerifier{err: ErrInvalidToken}
	ok := stubVerifier{id: &ann}

	id, err := ChainVerifier{fail, ok}.Verify(context.Background(), "t")
	if err != nil || *id != ann {
		t.Errorf("Verify() = %v, %v; want %+v", id, err, ann)
	}

	if _, err := (ChainVerifier{fail, fail}).Verify(context.Background(), "t"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("all-failing chain error = %v, want ErrInvalidToken", err)
	}

	if _, err := (ChainVerifier{}).Verify(context.Background(), "t"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("empty chain error = %v, want ErrInvalidToken", err)
	}
}
