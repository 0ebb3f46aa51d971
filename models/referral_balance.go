package models

// ReferralBalance holds a referrer's payable commission balance.
// Created on first grant or first reconciliation pass, additive thereafter.
// After reconciliation: balance = total_earned - total_withdrawn.
// Pending and rejected withdrawals never touch it.
type ReferralBalance struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"` // ExternalUserID of the referrer

	Balance        float64 `gorm:"default:0" json:"balance"`
	TotalEarned    float64 `gorm:"default:0" json:"total_earned"`
	TotalWithdrawn float64 `gorm:"default:0" json:"total_withdrawn"`

	Timestamps
}
