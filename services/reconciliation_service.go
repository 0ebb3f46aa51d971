package services

import (
	"errors"
	"log"
	"time"

	"umrah-ops-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ReconcileReport describes what reconciliation did (or skipped) for one referrer.
type ReconcileReport struct {
	UserID               string  `json:"user_id"`
	TotalEarnings        float64 `json:"total_earnings"`
	ConfirmedWithdrawals float64 `json:"confirmed_withdrawals"`
	NewBalance           float64 `json:"new_balance"`
	PreviousBalance      float64 `json:"previous_balance"`
	Changed              bool    `json:"changed"`
	Skipped              bool    `json:"skipped"`
	Reason               string  `json:"reason,omitempty"`
}

type ReconciliationService struct {
	DB *gorm.DB
}

func NewReconciliationService(db *gorm.DB) *ReconciliationService {
	return &ReconciliationService{DB: db}
}

// RecalculateOne recomputes a referrer's balance and total_withdrawn from
// first principles, repairing drift left by earlier bugs or manual edits:
//
//	newBalance      = stats.total_commission − Σ confirmed withdrawals
//	total_withdrawn = Σ confirmed withdrawals
//
// The legacy "approved" withdrawal status counts as confirmed. The balance
// row is overwritten, never incremented. Referrers without a balance row are
// skipped and reported, not created.
func (s *ReconciliationService) RecalculateOne(userID string) (*ReconcileReport, error) {
	report := &ReconcileReport{UserID: userID}

	var balance models.ReferralBalance
	err := s.DB.Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		report.Skipped = true
		report.Reason = "no balance record"
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	report.PreviousBalance = balance.Balance

	var confirmedTotal float64
	if err := s.DB.Model(&models.CommissionWithdrawal{}).
		Where("user_id = ? AND status IN ?", userID, models.ConfirmedWithdrawalStatuses).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&confirmedTotal).Error; err != nil {
		return nil, err
	}
	report.ConfirmedWithdrawals = confirmedTotal

	var stats models.ReferrerStats
	err = s.DB.Where("user_id = ?", userID).First(&stats).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("⚠️ No stats record for %s during reconciliation, treating earnings as 0", userID)
	}
	report.TotalEarnings = stats.TotalCommission

	newBalance := stats.TotalCommission - confirmedTotal
	report.NewBalance = newBalance
	report.Changed = balance.Balance != newBalance || balance.TotalWithdrawn != confirmedTotal

	if report.Changed {
		if err := s.DB.Model(&models.ReferralBalance{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"balance":         newBalance,
				"total_withdrawn": confirmedTotal,
			}).Error; err != nil {
			return nil, err
		}
		log.Printf("🔧 Reconciled balance for %s: %.0f → %.0f (withdrawn %.0f)",
			userID, balance.Balance, newBalance, confirmedTotal)
	}

	return report, nil
}

// RecalculateAll runs reconciliation for every referrer with any withdrawal
// history. Per-user failures are logged and do not stop the batch.
func (s *ReconciliationService) RecalculateAll() ([]ReconcileReport, error) {
	var userIDs []string
	if err := s.DB.Model(&models.CommissionWithdrawal{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, err
	}

	reports := make([]ReconcileReport, 0, len(userIDs))
	for _, userID := range userIDs {
		report, err := s.RecalculateOne(userID)
		if err != nil {
			log.Printf("❌ Reconciliation failed for %s: %v", userID, err)
			reports = append(reports, ReconcileReport{
				UserID:  userID,
				Skipped: true,
				Reason:  err.Error(),
			})
			continue
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// StartReconciliationScheduler repairs balance drift once a day.
func (s *ReconciliationService) StartReconciliationScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			reports, err := s.RecalculateAll()
			if err != nil {
				log.Printf("[Reconciler] Batch failed: %v", err)
				return
			}
			changed := 0
			for _, r := range reports {
				if r.Changed {
					changed++
				}
			}
			log.Printf("[Reconciler] Checked %d referrer(s), repaired %d", len(reports), changed)
		}),
	)
}
