package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"gorm.io/gorm"
)

// InteractionRepository stores follows, likes and comments.
// Follow and Like return ErrAlreadyExists for a repeated action, and the
// undo operations return ErrNotFound when there is nothing to undo.
type InteractionRepository interface {
	Follow(ctx context.Context, followerID, followingID uint) (*models.Follow, error)
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)

	Like(ctx context.Context, postID string, userID uint) (*models.Like, error)
	Unlike(ctx context.Context, postID string, userID uint) error
	HasLiked(ctx context.Context, postID string, userID uint) (bool, error)

	Comment(ctx context.Context, postID string, userID uint, content string) (*models.Comment, error)
	CommentsForPost(ctx context.Context, postID string) ([]models.Comment, error)
}

type PostgresInteractionRepository struct {
	db *gorm.DB
}

func NewPostgresInteractionRepository(db *gorm.DB) *PostgresInteractionRepository {
	return &PostgresInteractionRepository{db: db}
}

const (
	followEdge = "follower_id = ? AND following_id = ?"
	likeEdge   = "post_id = ? AND user_id = ?"
)

// createOnce inserts row unless a row matching where already exists. The
// unique index still decides when two requests race past the check.
func createOnce[T any](ctx context.Context, db *gorm.DB, row *T, where string, args ...any) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(new(T)).Where(where, args...).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func deleteOne[T any](ctx context.Context, db *gorm.DB, where string, args ...any) error {
	res := db.WithContext(ctx).Where(where, args...).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func exists[T any](ctx context.Context, db *gorm.DB, where string, args ...any) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(new(T)).Where(where, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresInteractionRepository) Follow(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := createOnce(ctx, r.db, follow, followEdge, followerID, followingID); err != nil {
		return nil, err
	}
	return follow, nil
}

func (r *PostgresInteractionRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return deleteOne[models.Follow](ctx, r.db, followEdge, followerID, followingID)
}

func (r *PostgresInteractionRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return exists[models.Follow](ctx, r.db, followEdge, followerID, followingID)
}

func (r *PostgresInteractionRepository) Like(ctx context.Context, postID string, userID uint) (*models.Like, error) {
	like := &models.Like{PostID: postID, UserID: userID}
	if err := createOnce(ctx, r.db, like, likeEdge, postID, userID); err != nil {
		return nil, err
	}
	return like, nil
}

func (r *PostgresInteractionRepository) Unlike(ctx context.Context, postID string, userID uint) error {
	return deleteOne[models.Like](ctx, r.db, likeEdge, postID, userID)
}

func (r *PostgresInteractionRepository) HasLiked(ctx context.Context, postID string, userID uint) (bool, error) {
	return exists[models.Like](ctx, r.db, likeEdge, postID, userID)
}

func (r *PostgresInteractionRepository) Comment(ctx context.Context, postID string, userID uint, content string) (*models.Comment, error) {
	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CommentsForPost returns a post's comments, oldest first
func (r *PostgresInteractionRepository) CommentsForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
