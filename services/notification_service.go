package services

import (
	"context"
	"fmt"

	"clinic_flow_app_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultNotificationHistory is how many recent notifications a feed loads
const DefaultNotificationHistory = 20

// NotificationStore is the per-user notification surface of the Record Store
type NotificationStore interface {
	RecentNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, notificationID string) error
}

type NotificationService struct {
	DB        *gorm.DB
	publisher InsertPublisher
	logger    *zap.Logger
}

func NewNotificationService(db *gorm.DB, publisher InsertPublisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{DB: db, publisher: publisher, logger: logger}
}

// RecentNotifications returns the newest notifications for a user, newest first
func (s *NotificationService) RecentNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationHistory
	}
	var notifications []models.Notification
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// CountUnread counts a user's unread notifications in the database
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// CreateNotification persists the notification and announces the insert.
// A failed publish is logged; the row is already durable and will appear on the next fetch.
func (s *NotificationService) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.Type == "" {
		n.Type = models.NotificationTypeOther
	}
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishInsert(ctx, *n); err != nil {
			s.logger.Warn("notification insert not published",
				zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
	return nil
}
