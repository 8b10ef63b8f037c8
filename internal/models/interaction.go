package models

import "time"

// Interactions are the social actions that raise a notification for someone
// other than the actor. Each row is written once and never edited.

// Follow is a one-way edge from FollowerID to FollowingID
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_follow_edge,priority:1"`
	FollowingID uint      `json:"following_id" gorm:"not null;uniqueIndex:idx_follow_edge,priority:2;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Like is at most one per (post, user)
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;not null;uniqueIndex:idx_like_post_user,priority:1"` // MongoDB ObjectID hex
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_like_post_user,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"size:500;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest is the body of POST /posts/:post_id/comments
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
