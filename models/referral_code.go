package models

// ReferralCode is the master registry entry for a referral code.
// One active owner per code. Rows may be created lazily by the resolver's
// legacy recovery scan when a code predates this registry.
type ReferralCode struct {
	ID        string   `gorm:"primaryKey;type:uuid" json:"id"`
	Code      string   `gorm:"uniqueIndex;not null" json:"code"` // always stored uppercase
	OwnerID   string   `gorm:"index;not null" json:"owner_id"`   // ExternalUserID of the owner
	OwnerRole UserRole `gorm:"type:varchar(32);not null" json:"owner_role"`

	// CommissionPerPaidUser is the payout configured at code creation time.
	// Tracking records snapshot this value, so later edits never change
	// commissions already promised.
	CommissionPerPaidUser float64 `gorm:"not null" json:"commission_per_paid_user"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	Timestamps
}
