package models

import "time"

// NotificationKind is the closed set of events that notify a user
type NotificationKind string

const (
	KindFollow  NotificationKind = "follow"
	KindLike    NotificationKind = "like"
	KindComment NotificationKind = "comment"
)

// Valid reports whether k is one of the known kinds
func (k NotificationKind) Valid() bool {
	switch k {
	case KindFollow, KindLike, KindComment:
		return true
	}
	return false
}

// Render returns the fixed text stored with a notification of this kind
func (k NotificationKind) Render(username string) string {
	switch k {
	case KindFollow:
		return username + " started following you"
	case KindLike:
		return username + " liked your post"
	case KindComment:
		return username + " commented on your post"
	}
	return username
}

// Notification represents a user notification (PostgreSQL).
// Only IsRead may change after creation, and only from false to true.
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RecipientID uint             `json:"recipient_id" gorm:"not null;index:idx_recipient_created,priority:1" validate:"required"`
	SenderID    uint             `json:"sender_id" gorm:"not null;index" validate:"required"`
	Kind        NotificationKind `json:"kind" gorm:"size:20;not null" validate:"required,oneof=follow like comment"`
	PostID      *string          `json:"post_id,omitempty" gorm:"size:24"` // MongoDB ObjectID hex, absent for follow
	Message     string           `json:"message" gorm:"not null" validate:"required"`
	IsRead      bool             `json:"read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index:idx_recipient_created,priority:2"`
}

// NotificationView is a notification with its sender resolved to display fields.
// The pull API and the push channel both send this shape.
type NotificationView struct {
	ID          uint             `json:"id"`
	RecipientID uint             `json:"recipient_id"`
	Sender      UserCompact      `json:"sender"`
	Kind        NotificationKind `json:"kind"`
	PostID      *string          `json:"post_id,omitempty"`
	Post        *PostSummary     `json:"post,omitempty"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// PostSummary is the subject post shown next to like and comment
// notifications. It is looked up when the view is built, never stored.
type PostSummary struct {
	ID       string `json:"id"`
	AuthorID uint   `json:"-"`
	Content  string `json:"content"`
}

// ToView attaches the sender display fields
func (n Notification) ToView(sender UserCompact) NotificationView {
	if sender.ID == 0 {
		sender.ID = n.SenderID
	}
	return NotificationView{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Sender:      sender,
		Kind:        n.Kind,
		PostID:      n.PostID,
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

// NotificationPage is one offset page of a recipient's notifications, newest first
type NotificationPage struct {
	Items       []Notification
	Page        int
	PageSize    int
	TotalCount  int64
	UnreadCount int64
}

// TotalPages is ceil(TotalCount / PageSize)
func (p NotificationPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.TotalCount + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// GroupedNotifications buckets notifications by age relative to a reference day
type GroupedNotifications struct {
	Today     []Notification
	Yesterday []Notification
	ThisWeek  []Notification
	Older     []Notification
}
