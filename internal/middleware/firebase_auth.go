package middleware

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
)

// IDTokenVerifier is the part of the Firebase auth client used here
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUserLookup maps a Firebase UID to the local profile
type FirebaseUserLookup interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseVerifier checks Firebase ID tokens and resolves them to local users
type FirebaseVerifier struct {
	client IDTokenVerifier
	users  FirebaseUserLookup
}

func NewFirebaseVerifier(client IDTokenVerifier, users FirebaseUserLookup) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (uint, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return 0, ErrInvalidToken
	}
	user, err := v.users.GetUserByFirebaseUID(ctx, token.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, ErrUnknownUser
	}
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
