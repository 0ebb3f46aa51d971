package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"umrah-ops-system/models"
	"umrah-ops-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// CommissionRateByRole is the fixed per-role payout table (Rupiah per paid
// referred user). Also used to derive the commission amount when the
// resolver synthesizes a registry entry from legacy data.
var CommissionRateByRole = map[models.UserRole]float64{
	models.RoleAlumni: 300000,
	models.RoleAgent:  500000,
}

var (
	ErrEmptyReferralCode    = errors.New("referral code is empty")
	ErrReferralCodeNotFound = errors.New("referral code not found")
	ErrReferralCodeInactive = errors.New("referral code is no longer active")
	ErrIneligibleOwnerRole  = errors.New("code owner role is not commission-eligible")
	ErrOwnerNotFound        = errors.New("code owner not found")
)

type ReferralService struct {
	DB            *gorm.DB
	Notifications *NotificationService
}

func NewReferralService(db *gorm.DB, notifications *NotificationService) *ReferralService {
	return &ReferralService{DB: db, Notifications: notifications}
}

// NormalizeCode applies the only input normalization the resolver performs:
// trim and uppercase. No fuzzy matching.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ResolveCode looks a human-entered code up in the master registry, falling
// back to legacy locations (stats rows, then user rows) and synthesizing a
// registry entry on a legacy hit. No partial writes on failure.
func (s *ReferralService) ResolveCode(code string) (*models.ReferralCode, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrEmptyReferralCode
	}

	var rc models.ReferralCode
	err := s.DB.Where("code = ?", normalized).First(&rc).Error
	if err == nil {
		if !rc.IsActive {
			return nil, ErrReferralCodeInactive
		}
		return &rc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.recoverLegacyCode(normalized)
}

// recoverLegacyCode scans the pre-registry locations in priority order:
// (a) referrer stats rows, (b) user rows. On the first match it creates the
// missing registry entry (and stats row, for case b) so the next lookup
// hits the registry directly.
func (s *ReferralService) recoverLegacyCode(normalized string) (*models.ReferralCode, error) {
	var stats models.ReferrerStats
	err := s.DB.Where("referral_code = ?", normalized).First(&stats).Error
	if err == nil {
		rc := models.ReferralCode{
			ID:                    uuid.NewString(),
			Code:                  normalized,
			OwnerID:               stats.UserID,
			OwnerRole:             stats.Role,
			CommissionPerPaidUser: CommissionRateByRole[stats.Role],
			IsActive:              true,
		}
		if err := s.DB.Create(&rc).Error; err != nil {
			return nil, fmt.Errorf("failed to register legacy code %s: %w", normalized, err)
		}
		log.Printf("🔁 Recovered legacy referral code %s from stats of user %s", normalized, stats.UserID)
		return &rc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var owner models.PilgrimUser
	err = s.DB.Where("referral_code = ?", normalized).First(&owner).Error
	if err == nil {
		rc := models.ReferralCode{
			ID:                    uuid.NewString(),
			Code:                  normalized,
			OwnerID:               owner.ExternalUserID,
			OwnerRole:             owner.Role,
			CommissionPerPaidUser: CommissionRateByRole[owner.Role],
			IsActive:              true,
		}
		if err := s.DB.Create(&rc).Error; err != nil {
			return nil, fmt.Errorf("failed to register legacy code %s: %w", normalized, err)
		}
		if err := s.ensureStatsRecord(owner.ExternalUserID, owner.Role, normalized); err != nil {
			log.Printf("⚠️ Failed to create stats record for recovered code %s: %v", normalized, err)
		}
		log.Printf("🔁 Recovered legacy referral code %s from user %s", normalized, owner.ExternalUserID)
		return &rc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return nil, ErrReferralCodeNotFound
}

// ensureStatsRecord creates the role-specific stats row if missing (idempotent).
func (s *ReferralService) ensureStatsRecord(userID string, role models.UserRole, code string) error {
	var stats models.ReferrerStats
	err := s.DB.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = models.ReferrerStats{
			ID:           uuid.NewString(),
			UserID:       userID,
			Role:         role,
			ReferralCode: code,
		}
		return s.DB.Create(&stats).Error
	}
	return err
}

// RegisterReferral resolves a user-supplied code for a newly registered user
// and creates the tracking record. Callers must invoke this exactly once per
// registration; duplicate attempts for the same pair are not deduplicated here.
func (s *ReferralService) RegisterReferral(code, referredUserID string) (*models.ReferralTracking, error) {
	rc, err := s.ResolveCode(code)
	if err != nil {
		return nil, err
	}

	if !rc.OwnerRole.CommissionEligible() {
		return nil, ErrIneligibleOwnerRole
	}

	tracking := models.ReferralTracking{
		ID:             uuid.NewString(),
		ReferralCode:   rc.Code,
		ReferrerID:     rc.OwnerID,
		ReferredUserID: referredUserID,
		Status:         models.ReferralStatusRegistered,
		// Snapshot the payout now so later rate changes never retroactively
		// alter this referral.
		CommissionAmount: rc.CommissionPerPaidUser,
	}
	if err := s.DB.Create(&tracking).Error; err != nil {
		return nil, fmt.Errorf("failed to create referral tracking: %w", err)
	}

	result := s.DB.Model(&models.ReferrerStats{}).
		Where("user_id = ?", rc.OwnerID).
		UpdateColumn("total_referrals", gorm.Expr("total_referrals + ?", 1))
	if result.Error != nil {
		log.Printf("⚠️ Failed to increment total_referrals for %s: %v", rc.OwnerID, result.Error)
	} else if result.RowsAffected == 0 {
		// Registry entry without a stats row — create one already counting
		// this referral.
		stats := models.ReferrerStats{
			ID:             uuid.NewString(),
			UserID:         rc.OwnerID,
			Role:           rc.OwnerRole,
			ReferralCode:   rc.Code,
			TotalReferrals: 1,
		}
		if err := s.DB.Create(&stats).Error; err != nil {
			log.Printf("⚠️ Failed to create stats record for %s: %v", rc.OwnerID, err)
		}
	}

	s.Notifications.Notify(rc.OwnerID, models.NotificationTypeNewReferral,
		"Referral Baru",
		fmt.Sprintf("Jamaah baru mendaftar dengan kode referral %s Anda.", rc.Code))

	return &tracking, nil
}

// TrackUpgrade advances a referred user's tracking record when their role is
// upgraded (e.g. prospective → current pilgrim). No-op when the user was not
// referred. Idempotent, last-write-wins; never moves an approved record back.
func (s *ReferralService) TrackUpgrade(referredUserID string) error {
	var tracking models.ReferralTracking
	err := s.DB.Where("referred_user_id = ?", referredUserID).First(&tracking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	tracking.HasUpgraded = true
	tracking.UpgradedAt = &now
	if tracking.Status != models.ReferralStatusApproved {
		tracking.Status = models.ReferralStatusUpgraded
	}

	if err := s.DB.Save(&tracking).Error; err != nil {
		return fmt.Errorf("failed to mark referral upgraded for %s: %w", referredUserID, err)
	}
	return nil
}

// IssueCode creates (or returns the existing) referral code for an eligible
// owner, derived from their name plus a numeric suffix.
func (s *ReferralService) IssueCode(ownerExternalID string) (*models.ReferralCode, error) {
	var owner models.PilgrimUser
	if err := s.DB.Where("external_user_id = ?", ownerExternalID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}

	if !owner.Role.CommissionEligible() {
		return nil, ErrIneligibleOwnerRole
	}

	var existing models.ReferralCode
	err := s.DB.Where("owner_id = ?", ownerExternalID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	code, err := s.generateCode(owner.FullName)
	if err != nil {
		return nil, err
	}

	rc := models.ReferralCode{
		ID:                    uuid.NewString(),
		Code:                  code,
		OwnerID:               ownerExternalID,
		OwnerRole:             owner.Role,
		CommissionPerPaidUser: CommissionRateByRole[owner.Role],
		IsActive:              true,
	}
	if err := s.DB.Create(&rc).Error; err != nil {
		return nil, fmt.Errorf("failed to create referral code: %w", err)
	}
	if err := s.ensureStatsRecord(ownerExternalID, owner.Role, code); err != nil {
		log.Printf("⚠️ Failed to create stats record for new code %s: %v", code, err)
	}

	return &rc, nil
}

// generateCode builds a code like "FAUZI483" from the owner's name.
func (s *ReferralService) generateCode(fullName string) (string, error) {
	base := "UMRAH"
	parts := strings.Split(slug.Make(fullName), "-")
	if len(parts) > 0 && parts[0] != "" {
		base = strings.ToUpper(parts[0])
	}
	if len(base) > 8 {
		base = base[:8]
	}

	for attempt := 0; attempt < 10; attempt++ {
		candidate := fmt.Sprintf("%s%03d", base, rand.Intn(1000))
		var count int64
		if err := s.DB.Model(&models.ReferralCode{}).Where("code = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique referral code for base %s", base)
}

// ListByReferrer returns every tracking record owned by a referrer, newest first.
func (s *ReferralService) ListByReferrer(referrerID string) ([]models.ReferralTracking, error) {
	var trackings []models.ReferralTracking
	if err := s.DB.Where("referrer_id = ?", referrerID).
		Order("created_at DESC").Find(&trackings).Error; err != nil {
		return nil, err
	}
	return trackings, nil
}

// Overview aggregates a referrer's dashboard numbers in one shot.
func (s *ReferralService) Overview(referrerID string) (map[string]interface{}, error) {
	var stats models.ReferrerStats
	if err := s.DB.Where("user_id = ?", referrerID).First(&stats).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var balance models.ReferralBalance
	if err := s.DB.Where("user_id = ?", referrerID).First(&balance).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return map[string]interface{}{
		"total_referrals":      stats.TotalReferrals,
		"successful_referrals": stats.SuccessfulReferrals,
		"total_commission":     stats.TotalCommission,
		"balance":              balance.Balance,
		"balance_formatted":    utils.FormatRupiah(balance.Balance),
		"total_withdrawn":      balance.TotalWithdrawn,
	}, nil
}
