package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository is the read side of the profile layer used by the notification core
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// firstUser maps gorm's not-found to ErrNotFound
func (r *PostgresUserRepository) firstUser(ctx context.Context, query any, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.firstUser(ctx, "id = ?", id)
}

// GetUserByFirebaseUID links a verified Firebase identity to a local profile
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.firstUser(ctx, "firebase_uid = ?", firebaseUID)
}

// GetUsersByIDs loads several profiles in one query, keyed by ID
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	byID := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
