package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	defaultPageSize  = 20
	groupedOlderCap  = 50
	newestFirstOrder = "created_at DESC, id DESC"
)

// NotificationRepository is the durable notification store.
// Records are append-only; only the read flag changes after creation.
type NotificationRepository interface {
	Record(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint, page, pageSize int) (models.NotificationPage, error)
	ListGrouped(ctx context.Context, recipientID uint, now time.Time) (models.GroupedNotifications, error)
	MarkRead(ctx context.Context, notificationID, requesterID uint) error
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}

type postgresNotificationRepository struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db, validate: validator.New()}
}

func (r *postgresNotificationRepository) Record(ctx context.Context, notification *models.Notification) error {
	if err := r.validate.Struct(notification); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	notification.ID = 0
	notification.IsRead = false
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListByRecipient reads the page, the total and the unread count in one
// transaction so the three agree with each other.
func (r *postgresNotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, page, pageSize int) (models.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	result := models.NotificationPage{Page: page, PageSize: pageSize}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Notification{}).
			Where("recipient_id = ?", recipientID).
			Count(&result.TotalCount).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Notification{}).
			Where("recipient_id = ? AND is_read = ?", recipientID, false).
			Count(&result.UnreadCount).Error; err != nil {
			return err
		}
		return tx.Where("recipient_id = ?", recipientID).
			Order(newestFirstOrder).
			Offset((page - 1) * pageSize).Limit(pageSize).
			Find(&result.Items).Error
	})
	if err != nil {
		return models.NotificationPage{}, err
	}
	return result, nil
}

func (r *postgresNotificationRepository) ListGrouped(ctx context.Context, recipientID uint, now time.Time) (models.GroupedNotifications, error) {
	var grouped models.GroupedNotifications
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)
	db := r.db.WithContext(ctx)

	// Today
	if err := db.Where("recipient_id = ? AND created_at >= ?", recipientID, todayStart).
		Order(newestFirstOrder).Find(&grouped.Today).Error; err != nil {
		return grouped, err
	}

	// Yesterday
	if err := db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, yesterdayStart, todayStart).
		Order(newestFirstOrder).Find(&grouped.Yesterday).Error; err != nil {
		return grouped, err
	}

	// This week (excluding today and yesterday)
	if err := db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, weekStart, yesterdayStart).
		Order(newestFirstOrder).Find(&grouped.ThisWeek).Error; err != nil {
		return grouped, err
	}

	// Older
	if err := db.Where("recipient_id = ? AND created_at < ?", recipientID, weekStart).
		Order(newestFirstOrder).Limit(groupedOlderCap).Find(&grouped.Older).Error; err != nil {
		return grouped, err
	}

	return grouped, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, notificationID, requesterID uint) error {
	var notification models.Notification
	if err := r.db.WithContext(ctx).First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if notification.RecipientID != requesterID {
		return ErrForbidden
	}
	if notification.IsRead {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notificationID, false).
		Update("is_read", true).Error
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}
