package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the profile record the notification core reads display fields from
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Name           string    `json:"name"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	ProfilePicture string    `json:"profile_picture"`
	FirebaseUID    *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the subset of a profile shown next to a notification
type UserCompact struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

func (u User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
