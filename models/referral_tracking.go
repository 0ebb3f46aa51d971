package models

import "time"

// ReferralStatus is the lifecycle state of a single referral.
// It only moves forward: registered → upgraded → approved.
type ReferralStatus string

const (
	ReferralStatusRegistered ReferralStatus = "registered"
	ReferralStatusUpgraded   ReferralStatus = "upgraded"
	ReferralStatusApproved   ReferralStatus = "approved"
)

// ReferralTracking is one record per (referrer, referred user) pair.
// Created once at registration, updated in place, never deleted.
type ReferralTracking struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferralCode   string `gorm:"index;not null" json:"referral_code"`
	ReferrerID     string `gorm:"index;not null" json:"referrer_id"`            // ExternalUserID of the code owner
	ReferredUserID string `gorm:"uniqueIndex;not null" json:"referred_user_id"` // ExternalUserID of the new user

	Status          ReferralStatus `gorm:"type:varchar(32);not null;default:'registered'" json:"status"`
	HasUpgraded     bool           `gorm:"default:false" json:"has_upgraded"`
	HasPaid         bool           `gorm:"default:false" json:"has_paid"`
	PaymentApproved bool           `gorm:"default:false" json:"payment_approved"`

	// CommissionGranted flips false→true at most once, inside the
	// settlement transaction.
	CommissionGranted bool    `gorm:"default:false" json:"commission_granted"`
	CommissionAmount  float64 `gorm:"not null" json:"commission_amount"` // snapshot taken at registration
	PaymentID         *string `gorm:"index" json:"payment_id,omitempty"`

	UpgradedAt *time.Time `json:"upgraded_at,omitempty"`
	GrantedAt  *time.Time `json:"granted_at,omitempty"`

	Timestamps
}
