package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"umrah-ops-system/models"
	"umrah-ops-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNoCommissionRate = errors.New("no commission rate configured for referrer role")

// SettlementResult is returned to the payment approval flow. Granted is
// false for the common cases that are not errors: the payer was never
// referred, or the commission was already granted earlier.
type SettlementResult struct {
	Granted    bool    `json:"granted"`
	Amount     float64 `json:"amount"`
	ReferrerID string  `json:"referrer_id,omitempty"`
	Message    string  `json:"message"`
}

type SettlementService struct {
	DB            *gorm.DB
	Notifications *NotificationService
}

func NewSettlementService(db *gorm.DB, notifications *NotificationService) *SettlementService {
	return &SettlementService{DB: db, Notifications: notifications}
}

// SettlePayment grants referral commission after an admin approves a payment
// belonging to a (possibly referred) user. Grants at most once per tracking
// record; duplicate approval triggers short-circuit successfully.
//
// The tracking update, balance credit, user mirror credit and stats update
// are one atomic unit. Partial application would be a correctness bug, so a
// transaction failure aborts the whole attempt with no effect; it is logged
// for manual remediation and never silently retried.
func (s *SettlementService) SettlePayment(referredUserID, paymentID string) (*SettlementResult, error) {
	var tracking models.ReferralTracking
	err := s.DB.Where("referred_user_id = ?", referredUserID).First(&tracking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Most payments are not from referred users.
		return &SettlementResult{Granted: false, Message: "user was not referred"}, nil
	}
	if err != nil {
		return nil, err
	}

	if tracking.CommissionGranted {
		return &SettlementResult{
			Granted:    false,
			ReferrerID: tracking.ReferrerID,
			Message:    "commission already granted for this referral",
		}, nil
	}

	var amount float64
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// All reads before any writes.
		var fresh models.ReferralTracking
		if err := tx.Where("id = ?", tracking.ID).First(&fresh).Error; err != nil {
			return fmt.Errorf("tracking record %s disappeared: %w", tracking.ID, err)
		}
		if fresh.CommissionGranted {
			amount = 0
			return nil
		}

		var stats models.ReferrerStats
		if err := tx.Where("user_id = ?", fresh.ReferrerID).First(&stats).Error; err != nil {
			return fmt.Errorf("stats record not found for referrer %s: %w", fresh.ReferrerID, err)
		}

		amount = fresh.CommissionAmount
		if amount <= 0 {
			// Pre-snapshot tracking rows fall back to the fixed rate table.
			rate, ok := CommissionRateByRole[stats.Role]
			if !ok {
				return ErrNoCommissionRate
			}
			amount = rate
		}

		var balance models.ReferralBalance
		balanceErr := tx.Where("user_id = ?", fresh.ReferrerID).First(&balance).Error
		if balanceErr != nil && !errors.Is(balanceErr, gorm.ErrRecordNotFound) {
			return balanceErr
		}

		var mirror models.PilgrimUser
		mirrorErr := tx.Where("external_user_id = ?", fresh.ReferrerID).First(&mirror).Error
		if mirrorErr != nil && !errors.Is(mirrorErr, gorm.ErrRecordNotFound) {
			return mirrorErr
		}

		// Writes.
		now := time.Now()
		fresh.Status = models.ReferralStatusApproved
		fresh.HasPaid = true
		fresh.PaymentApproved = true
		fresh.CommissionGranted = true
		fresh.PaymentID = &paymentID
		fresh.GrantedAt = &now
		if err := tx.Save(&fresh).Error; err != nil {
			return err
		}

		if errors.Is(balanceErr, gorm.ErrRecordNotFound) {
			balance = models.ReferralBalance{
				ID:          uuid.NewString(),
				UserID:      fresh.ReferrerID,
				Balance:     amount,
				TotalEarned: amount,
			}
			if err := tx.Create(&balance).Error; err != nil {
				return err
			}
		} else {
			balance.Balance += amount
			balance.TotalEarned += amount
			if err := tx.Save(&balance).Error; err != nil {
				return err
			}
		}

		if errors.Is(mirrorErr, gorm.ErrRecordNotFound) {
			// Mirror row may lag the sync worker; the balance table stays
			// authoritative either way.
			log.Printf("⚠️ No user mirror for referrer %s, skipping commission_balance mirror update", fresh.ReferrerID)
		} else {
			mirror.CommissionBalance += amount
			if err := tx.Save(&mirror).Error; err != nil {
				return err
			}
		}

		stats.SuccessfulReferrals++
		stats.TotalCommission += amount
		// Previous value + amount rather than a blind increment, so a
		// missing legacy column value defaults to zero.
		stats.ApprovedCommission = stats.ApprovedCommission + amount
		if err := tx.Save(&stats).Error; err != nil {
			return err
		}

		tracking = fresh
		return nil
	})
	if err != nil {
		log.Printf("❌ Commission settlement failed (referred=%s payment=%s referrer=%s): %v",
			referredUserID, paymentID, tracking.ReferrerID, err)
		return nil, err
	}

	if amount == 0 {
		// Lost a race against a concurrent settlement of the same referral.
		return &SettlementResult{
			Granted:    false,
			ReferrerID: tracking.ReferrerID,
			Message:    "commission already granted for this referral",
		}, nil
	}

	s.Notifications.Notify(tracking.ReferrerID, models.NotificationTypeCommissionGranted,
		"Komisi Referral Cair",
		fmt.Sprintf("Komisi %s telah ditambahkan ke saldo Anda.", utils.FormatRupiah(amount)))

	log.Printf("✅ Commission %s granted to referrer %s for payment %s",
		utils.FormatRupiah(amount), tracking.ReferrerID, paymentID)

	return &SettlementResult{
		Granted:    true,
		Amount:     amount,
		ReferrerID: tracking.ReferrerID,
		Message:    "commission granted",
	}, nil
}
