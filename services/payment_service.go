package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"umrah-ops-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentFinalized     = errors.New("payment is already finalized")
	ErrInvalidPaymentAmount = errors.New("payment amount must be greater than zero")
)

type PaymentService struct {
	DB         *gorm.DB
	Settlement *SettlementService
}

func NewPaymentService(db *gorm.DB, settlement *SettlementService) *PaymentService {
	return &PaymentService{DB: db, Settlement: settlement}
}

// Submit records a pilgrim's package payment as pending for admin review.
func (s *PaymentService) Submit(userID, bookingID string, amount float64, proofURL string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	payment := models.Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		BookingID: bookingID,
		Amount:    amount,
		Status:    models.PaymentStatusPending,
		ProofURL:  proofURL,
	}
	if err := s.DB.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	log.Printf("📥 Payment %s submitted by %s, awaiting review", payment.ID, userID)
	return &payment, nil
}

// Approve flips a pending payment to approved, then triggers commission
// settlement for the payer's referrer (if any). Settlement failure does not
// un-approve the payment; it is logged for manual remediation and surfaced
// in the returned result.
func (s *PaymentService) Approve(paymentID, adminID string) (*models.Payment, *SettlementResult, error) {
	var payment models.Payment
	if err := s.DB.Where("id = ?", paymentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPaymentNotFound
		}
		return nil, nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, nil, ErrPaymentFinalized
	}

	now := time.Now()
	payment.Status = models.PaymentStatusApproved
	payment.VerifiedBy = &adminID
	payment.VerifiedAt = &now
	if err := s.DB.Save(&payment).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to approve payment %s: %w", paymentID, err)
	}

	settlement, err := s.Settlement.SettlePayment(payment.UserID, payment.ID)
	if err != nil {
		log.Printf("❌ Payment %s approved but settlement failed, needs manual remediation: %v", paymentID, err)
		settlement = &SettlementResult{
			Granted: false,
			Message: "settlement failed: " + err.Error(),
		}
	}

	return &payment, settlement, nil
}

// Reject finalizes a pending payment without touching referral state.
func (s *PaymentService) Reject(paymentID, adminID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.DB.Where("id = ?", paymentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, ErrPaymentFinalized
	}

	now := time.Now()
	payment.Status = models.PaymentStatusRejected
	payment.VerifiedBy = &adminID
	payment.VerifiedAt = &now
	if err := s.DB.Save(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListAll returns payments for the admin review screen, optionally filtered
// by status.
func (s *PaymentService) ListAll(status models.PaymentStatus) ([]models.Payment, error) {
	query := s.DB.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
