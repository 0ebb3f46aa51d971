package services

import (
	"log"

	"umrah-ops-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// Notify is fire-and-forget: a failed insert must never fail or roll back
// the operation that triggered it.
func (s *NotificationService) Notify(userID string, typ models.NotificationType, title, body string) {
	n := models.Notification{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   typ,
		Title:  title,
		Body:   body,
	}
	if err := s.DB.Create(&n).Error; err != nil {
		log.Printf("⚠️ Failed to create %s notification for user %s: %v", typ, userID, err)
	}
}

// ListForUser returns the newest notifications for the panel.
func (s *NotificationService) ListForUser(userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.DB.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks a single notification as read (idempotent).
func (s *NotificationService) MarkRead(userID, notificationID string) error {
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification for the user as read and
// returns how many were flipped.
func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}
