package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment is a package payment reviewed in the admin console.
// Approval is what triggers commission settlement for referred users.
// Settlement itself never mutates this row beyond what the approval
// handler already wrote.
type Payment struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string  `gorm:"index;not null" json:"user_id"` // ExternalUserID of the paying pilgrim
	BookingID string  `gorm:"index" json:"booking_id,omitempty"`
	Amount    float64 `gorm:"not null" json:"amount"`

	Status     PaymentStatus `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ProofURL   string        `gorm:"type:text" json:"proof_url,omitempty"`
	VerifiedBy *string       `json:"verified_by,omitempty"` // admin ExternalUserID
	VerifiedAt *time.Time    `json:"verified_at,omitempty"`

	Timestamps
}
