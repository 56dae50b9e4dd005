package auth

import (
	"context"
	"errors"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
)

// Identity is a user as the identity provider knows them
type Identity struct {
	UID   string
	Email string
	Name  string
}

// IDTokenVerifier verifies identity provider ID tokens
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

// FirebaseVerifier verifies Firebase Authentication ID tokens
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

// NewFirebaseVerifier constructs a FirebaseVerifier from an initialized app
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}

	return &FirebaseVerifier{client: client}, nil
}

// VerifyIDToken checks the signature and revocation state of an ID token
func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, errors.New("no id token specified")
	}

	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, err
	}

	identity := Identity{UID: token.UID}

	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}

	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}

	return &identity, nil
}

// MockVerifier accepts the ID tokens it knows
type MockVerifier struct {
	Identities map[string]Identity
}

// VerifyIDToken looks the token up in Identities
func (v *MockVerifier) VerifyIDToken(_ context.Context, idToken string) (*Identity, error) {
	identity, ok := v.Identities[idToken]
	if !ok {
		return nil, errors.New("unknown id token")
	}

	return &identity, nil
}
