package services

import (
	"log"
	"time"

	"luxurystay-server/models"

	"gorm.io/gorm"
)

// Notify records a lifecycle event as a notification row. Fire-and-forget:
// a failed write is logged, never propagated, so notification trouble can't
// fail a booking or a payment. Delivery is by client polling.
func Notify(db *gorm.DB, userID uint, notifType, title, message, refType string, refID uint) {
	n := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		RefType: refType,
		RefID:   refID,
		IsRead:  false,
	}
	if err := db.Create(&n).Error; err != nil {
		log.Printf("failed to record %s notification for user %d: %v", notifType, userID, err)
	}
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(db *gorm.DB, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var notifications []models.Notification
	err := q.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

// MarkNotificationRead flips the read flag on one of the user's
// notifications.
func MarkNotificationRead(db *gorm.DB, id, userID uint) (*models.Notification, error) {
	var n models.Notification
	if err := db.First(&n, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError("notification")
		}
		return nil, err
	}
	if n.UserID != userID {
		return nil, ForbiddenError("notification belongs to another user")
	}
	if !n.IsRead {
		now := time.Now()
		n.IsRead = true
		n.ReadAt = &now
		if err := db.Save(&n).Error; err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// MarkAllNotificationsRead marks every unread notification for the user.
func MarkAllNotificationsRead(db *gorm.DB, userID uint) (int64, error) {
	now := time.Now()
	res := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	return res.RowsAffected, res.Error
}
