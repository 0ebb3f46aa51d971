package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"umrah-ops-system/models"
	"umrah-ops-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinWithdrawalAmount is the smallest cash-out the agency processes (Rupiah).
const MinWithdrawalAmount = 50000

var (
	ErrInvalidAmount       = errors.New("withdrawal amount must be greater than zero")
	ErrBelowMinimum        = fmt.Errorf("withdrawal amount is below the minimum of %d", MinWithdrawalAmount)
	ErrInsufficientBalance = errors.New("withdrawal amount exceeds current balance")
	ErrWithdrawalNotFound  = errors.New("withdrawal request not found")
	ErrWithdrawalFinalized = errors.New("withdrawal request is already finalized")
	ErrReasonRequired      = errors.New("a rejection reason is required")
)

// WithdrawalRequest carries the referrer's cash-out details.
type WithdrawalRequest struct {
	Amount        float64                 `json:"amount"`
	Method        models.WithdrawalMethod `json:"method"`
	BankName      string                  `json:"bank_name"`
	AccountNumber string                  `json:"account_number"`
	AccountName   string                  `json:"account_name"`
	Note          string                  `json:"note"`
}

type WithdrawalService struct {
	DB            *gorm.DB
	Notifications *NotificationService
}

func NewWithdrawalService(db *gorm.DB, notifications *NotificationService) *WithdrawalService {
	return &WithdrawalService{DB: db, Notifications: notifications}
}

// GetBalance returns the referrer's balance row, or a zero-valued one when
// none exists yet.
func (s *WithdrawalService) GetBalance(userID string) (*models.ReferralBalance, error) {
	var balance models.ReferralBalance
	err := s.DB.Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ReferralBalance{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// Request creates a pending withdrawal. The balance is checked with a plain
// read, not locked: a race with a concurrent request or settlement is an
// accepted limitation. Crucially, the balance is NOT decremented here —
// funds leave the balance only when an admin confirms.
func (s *WithdrawalService) Request(userID string, req WithdrawalRequest) (*models.CommissionWithdrawal, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Amount < MinWithdrawalAmount {
		return nil, ErrBelowMinimum
	}

	balance, err := s.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	if req.Amount > balance.Balance {
		return nil, ErrInsufficientBalance
	}

	withdrawal := models.CommissionWithdrawal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        req.Amount,
		Status:        models.WithdrawalStatusPending,
		Method:        req.Method,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		Note:          req.Note,
		RequestedAt:   time.Now(),
	}
	if err := s.DB.Create(&withdrawal).Error; err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	return &withdrawal, nil
}

// Approve confirms a pending withdrawal. The balance is decremented only
// when it is currently sufficient; when it is not, the approval still
// proceeds with a logged warning rather than stranding the request — the
// nightly reconciliation repairs the numbers. total_withdrawn always grows
// by the withdrawal amount.
func (s *WithdrawalService) Approve(withdrawalID, adminID, proofURL, note string) (*models.CommissionWithdrawal, error) {
	var withdrawal models.CommissionWithdrawal
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", withdrawalID).First(&withdrawal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWithdrawalNotFound
			}
			return err
		}
		if withdrawal.Status.IsTerminal() {
			return ErrWithdrawalFinalized
		}

		var balance models.ReferralBalance
		balanceErr := tx.Where("user_id = ?", withdrawal.UserID).First(&balance).Error
		if balanceErr != nil && !errors.Is(balanceErr, gorm.ErrRecordNotFound) {
			return balanceErr
		}

		if errors.Is(balanceErr, gorm.ErrRecordNotFound) {
			log.Printf("⚠️ Approving withdrawal %s but referrer %s has no balance record",
				withdrawalID, withdrawal.UserID)
		} else {
			if balance.Balance >= withdrawal.Amount {
				balance.Balance -= withdrawal.Amount
			} else {
				log.Printf("⚠️ Withdrawal %s approved with insufficient balance (%.0f < %.0f) for %s — proceeding",
					withdrawalID, balance.Balance, withdrawal.Amount, withdrawal.UserID)
			}
			balance.TotalWithdrawn += withdrawal.Amount
			if err := tx.Save(&balance).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		withdrawal.Status = models.WithdrawalStatusConfirmed
		withdrawal.ProcessedAt = &now
		withdrawal.ProcessedBy = &adminID
		if proofURL != "" {
			withdrawal.TransferProofURL = proofURL
		}
		if note != "" {
			withdrawal.Note = note
		}
		return tx.Save(&withdrawal).Error
	})
	if err != nil {
		return nil, err
	}

	s.Notifications.Notify(withdrawal.UserID, models.NotificationTypeWithdrawalUpdate,
		"Penarikan Dikonfirmasi",
		fmt.Sprintf("Penarikan komisi %s telah ditransfer.", utils.FormatRupiah(withdrawal.Amount)))

	return &withdrawal, nil
}

// Reject finalizes a pending withdrawal with a mandatory reason. Because the
// balance was never decremented at request time, no refund step exists:
// rejection is a pure status write.
func (s *WithdrawalService) Reject(withdrawalID, adminID, reason string) (*models.CommissionWithdrawal, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	var withdrawal models.CommissionWithdrawal
	if err := s.DB.Where("id = ?", withdrawalID).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	if withdrawal.Status.IsTerminal() {
		return nil, ErrWithdrawalFinalized
	}

	now := time.Now()
	withdrawal.Status = models.WithdrawalStatusRejected
	withdrawal.RejectionReason = strings.TrimSpace(reason)
	withdrawal.ProcessedAt = &now
	withdrawal.ProcessedBy = &adminID
	if err := s.DB.Save(&withdrawal).Error; err != nil {
		return nil, err
	}

	s.Notifications.Notify(withdrawal.UserID, models.NotificationTypeWithdrawalUpdate,
		"Penarikan Ditolak",
		fmt.Sprintf("Penarikan %s ditolak: %s", utils.FormatRupiah(withdrawal.Amount), withdrawal.RejectionReason))

	return &withdrawal, nil
}

// ListByUser returns a referrer's withdrawal history, newest first. Legacy
// statuses are normalized the same way as in the admin view.
func (s *WithdrawalService) ListByUser(userID string) ([]models.CommissionWithdrawal, error) {
	var withdrawals []models.CommissionWithdrawal
	if err := s.DB.Where("user_id = ?", userID).
		Order("requested_at DESC").Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	for i := range withdrawals {
		withdrawals[i].Status = models.NormalizeWithdrawalStatus(withdrawals[i].Status)
	}
	return withdrawals, nil
}

// ListAll returns withdrawals for the admin view, optionally filtered by
// status. Filtering by confirmed includes the legacy alias.
func (s *WithdrawalService) ListAll(status models.WithdrawalStatus) ([]models.CommissionWithdrawal, error) {
	query := s.DB.Order("requested_at DESC")
	if status != "" {
		if models.NormalizeWithdrawalStatus(status) == models.WithdrawalStatusConfirmed {
			query = query.Where("status IN ?", models.ConfirmedWithdrawalStatuses)
		} else {
			query = query.Where("status = ?", status)
		}
	}

	var withdrawals []models.CommissionWithdrawal
	if err := query.Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	for i := range withdrawals {
		withdrawals[i].Status = models.NormalizeWithdrawalStatus(withdrawals[i].Status)
	}
	return withdrawals, nil
}
