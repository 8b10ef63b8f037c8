package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// JWTVerifier accepts HS256 tokens carrying JwtCustomClaims
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (uint, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return 0, ErrUnknownUser
	}
	return claims.UserID, nil
}

// GenerateToken signs a token for user, valid for ttl
func (v *JWTVerifier) GenerateToken(user models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
