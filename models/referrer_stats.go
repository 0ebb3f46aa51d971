package models

// ReferrerStats is the role-specific stats record for a referral code owner.
// Older deployments wrote the owner's code here before the registry existed,
// so referral_code doubles as a legacy recovery location for the resolver.
type ReferrerStats struct {
	ID           string   `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string   `gorm:"uniqueIndex;not null" json:"user_id"` // ExternalUserID of the owner
	Role         UserRole `gorm:"type:varchar(32);not null" json:"role"`
	ReferralCode string   `gorm:"index" json:"referral_code"`

	TotalReferrals      int64 `gorm:"default:0" json:"total_referrals"`
	SuccessfulReferrals int64 `gorm:"default:0" json:"successful_referrals"`

	TotalCommission float64 `gorm:"default:0" json:"total_commission"`

	// ApprovedCommission is set to previous value + grant amount rather than
	// blindly incremented, so a missing legacy column value reads as zero.
	ApprovedCommission float64 `gorm:"default:0" json:"approved_commission"`

	Timestamps
}
