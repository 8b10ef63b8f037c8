package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the authenticated user id
const UserIDKey = "userID"

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnknownUser  = errors.New("token does not belong to a known user")
)

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uint, error)
}

// Auth rejects requests without a valid bearer token and stores the user id
// under UserIDKey
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			userID, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("authorization header must be in Bearer format")
	}
	return parts[1], nil
}
