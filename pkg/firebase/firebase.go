// Package firebase builds the Firebase Auth client used to verify ID tokens
// when AUTH_PROVIDER=firebase.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrNoCredentials = errors.New("firebase credentials path not provided")

// NewAuthClient loads a service account file and returns an Auth client.
// *auth.Client satisfies middleware.IDTokenVerifier.
func NewAuthClient(ctx context.Context, credentialsPath string, log *slog.Logger) (*auth.Client, error) {
	if credentialsPath == "" {
		return nil, ErrNoCredentials
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file not found at %s: %w", credentialsPath, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.Info("Firebase auth client initialized", "credentials", credentialsPath)
	return client, nil
}
