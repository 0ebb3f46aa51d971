package models

type NotificationType string

const (
	NotificationTypeNewReferral       NotificationType = "new_referral"
	NotificationTypeCommissionGranted NotificationType = "commission_granted"
	NotificationTypeWithdrawalUpdate  NotificationType = "withdrawal_update"
)

// Notification feeds the console's notification panel.
// Writes are fire-and-forget; a failed insert is logged and swallowed.
type Notification struct {
	ID     string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string           `gorm:"index;not null" json:"user_id"` // recipient ExternalUserID
	Type   NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title  string           `gorm:"not null" json:"title"`
	Body   string           `gorm:"type:text" json:"body"`
	Read   bool             `gorm:"default:false;index" json:"read"`

	Timestamps
}
