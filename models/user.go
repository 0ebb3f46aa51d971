package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole mirrors the role field managed by the agency core app.
type UserRole string

const (
	RoleCalonJamaah UserRole = "calon_jamaah" // prospective pilgrim
	RoleJamaah      UserRole = "jamaah"       // current pilgrim
	RoleAlumni      UserRole = "alumni"
	RoleAgent       UserRole = "agent"
	RoleMuthawif    UserRole = "muthawif"
	RoleTourLeader  UserRole = "tour_leader"
	RoleAdmin       UserRole = "admin"
)

// CommissionEligible reports whether this role may own a referral code
// and earn commission.
func (r UserRole) CommissionEligible() bool {
	return r == RoleAlumni || r == RoleAgent
}

// PilgrimUser is a local snapshot of user data needed for referral bookkeeping.
// Owned and managed solely by this service.
// Populated via sync worker from the agency core app's user table.
type PilgrimUser struct {
	ID             string   `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string   `gorm:"uniqueIndex;not null" json:"external_user_id"` // The agency core app's UUID
	FullName       string   `gorm:"index;not null" json:"full_name"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Role           UserRole `gorm:"type:varchar(32);index;not null;default:'calon_jamaah'" json:"role"`

	// Legacy column: older records carried the owner's referral code directly
	// on the user row before the referral_codes registry existed.
	ReferralCode string `gorm:"index" json:"referral_code,omitempty"`

	// CommissionBalance mirrors referral_balances.balance for dashboard reads.
	CommissionBalance float64 `gorm:"default:0" json:"commission_balance"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	Timestamps
}

// RemoteUser mirrors the JSON shape returned by the agency core app's
// public user sync endpoint (read-only).
type RemoteUser struct {
	ExternalID   string    `json:"external_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
