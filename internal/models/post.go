package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post lives in MongoDB. The notification flow reads only AuthorID, the
// recipient of like and comment notifications.
type Post struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID     uint               `json:"author_id" bson:"author_id"`
	Content      string             `json:"content" bson:"content"`
	ImageURLs    []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	PostCounters `bson:",inline"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// PostCounters are denormalized interaction totals, also used as a delta
type PostCounters struct {
	Likes    int `json:"likes_count" bson:"likes_count"`
	Comments int `json:"comments_count" bson:"comments_count"`
}

type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,min=1,max=280"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
}
