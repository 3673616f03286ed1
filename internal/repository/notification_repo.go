package repository

import (
	"context"
	"encoding/json"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type notificationModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;index:idx_notifications_user_unread"`
	Type      string    `gorm:"column:type"`
	Title     string    `gorm:"column:title"`
	Message   *string   `gorm:"column:message"`
	Data      []byte    `gorm:"column:data"`
	IsRead    bool      `gorm:"column:is_read;index:idx_notifications_user_unread"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (notificationModel) TableName() string { return "notifications" }

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification, data map[string]any) error {
	var raw []byte
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = b
	}

	var msg *string
	if n.Message != "" {
		m := n.Message
		msg = &m
	}

	m := notificationModel{
		UserID:  n.UserID,
		Type:    string(n.Type),
		Title:   n.Title,
		Message: msg,
		Data:    raw,
		IsRead:  n.IsRead,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}

	n.ID = m.ID
	n.Data = raw
	n.CreatedAt = m.CreatedAt
	return nil
}

func (r *NotificationRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []notificationModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		msg := ""
		if m.Message != nil {
			msg = *m.Message
		}
		out = append(out, domain.Notification{
			ID:        m.ID,
			UserID:    m.UserID,
			Type:      domain.NotificationType(m.Type),
			Title:     m.Title,
			Message:   msg,
			Data:      m.Data,
			IsRead:    m.IsRead,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
