package models

import "time"

// WithdrawalStatus is the state of a commission withdrawal request.
// pending → confirmed or pending → rejected; both outcomes are terminal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusConfirmed WithdrawalStatus = "confirmed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"

	// WithdrawalStatusLegacyApproved is an alias written by an older version
	// of the console. Read as confirmed, never written back.
	WithdrawalStatusLegacyApproved WithdrawalStatus = "approved"
)

// ConfirmedWithdrawalStatuses lists every status value that counts as a
// completed payout, including the legacy alias. Use in queries instead of
// comparing against WithdrawalStatusConfirmed alone.
var ConfirmedWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusConfirmed,
	WithdrawalStatusLegacyApproved,
}

// NormalizeWithdrawalStatus resolves legacy alias values at read time.
func NormalizeWithdrawalStatus(s WithdrawalStatus) WithdrawalStatus {
	if s == WithdrawalStatusLegacyApproved {
		return WithdrawalStatusConfirmed
	}
	return s
}

// IsTerminal reports whether no further transition is allowed.
func (s WithdrawalStatus) IsTerminal() bool {
	switch NormalizeWithdrawalStatus(s) {
	case WithdrawalStatusConfirmed, WithdrawalStatusRejected:
		return true
	}
	return false
}

// WithdrawalMethod is how the referrer wants to be paid out.
type WithdrawalMethod string

const (
	WithdrawalMethodBankTransfer WithdrawalMethod = "bank_transfer"
	WithdrawalMethodEWallet      WithdrawalMethod = "e_wallet"
)

// CommissionWithdrawal is a referrer's cash-out request.
// Balance is decremented only on the transition to confirmed; rejection is a
// pure status write because pending requests never held funds.
type CommissionWithdrawal struct {
	ID     string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string  `gorm:"index;not null" json:"user_id"` // ExternalUserID of the referrer
	Amount float64 `gorm:"not null" json:"amount"`

	Status WithdrawalStatus `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`

	Method        WithdrawalMethod `gorm:"type:varchar(32);not null" json:"method"`
	BankName      string           `json:"bank_name,omitempty"` // bank or e-wallet provider
	AccountNumber string           `gorm:"not null" json:"account_number"`
	AccountName   string           `gorm:"not null" json:"account_name"`

	TransferProofURL string  `gorm:"type:text" json:"transfer_proof_url,omitempty"`
	Note             string  `gorm:"type:text" json:"note,omitempty"`
	RejectionReason  string  `gorm:"type:text" json:"rejection_reason,omitempty"`
	ProcessedBy      *string `json:"processed_by,omitempty"` // admin ExternalUserID

	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	Timestamps
}
