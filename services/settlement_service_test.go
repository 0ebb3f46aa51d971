package services

import (
	"testing"

	"umrah-ops-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettlementFixture(t *testing.T) (*SettlementService, *ReferralService) {
	db := newTestDB(t)
	notifications := NewNotificationService(db)
	return NewSettlementService(db, notifications), NewReferralService(db, notifications)
}

func TestSettlePaymentGrantsCommission(t *testing.T) {
	settlement, referrals := newSettlementFixture(t)
	ownerID := seedReferrer(t, settlement.DB, "AGEN100", models.RoleAgent, 500000)
	_, err := referrals.RegisterReferral("AGEN100", "user-1")
	require.NoError(t, err)

	result, err := settlement.SettlePayment("user-1", "payment-1")
	require.NoError(t, err)
	assert.True(t, result.Granted)
	assert.Equal(t, 500000.0, result.Amount)
	assert.Equal(t, ownerID, result.ReferrerID)

	var tracking models.ReferralTracking
	require.NoError(t, settlement.DB.Where("referred_user_id = ?", "user-1").First(&tracking).Error)
	assert.Equal(t, models.ReferralStatusApproved, tracking.Status)
	assert.True(t, tracking.HasPaid)
	assert.True(t, tracking.PaymentApproved)
	assert.True(t, tracking.CommissionGranted)
	require.NotNil(t, tracking.PaymentID)
	assert.Equal(t, "payment-1", *tracking.PaymentID)
	require.NotNil(t, tracking.GrantedAt)

	var balance models.ReferralBalance
	require.NoError(t, settlement.DB.Where("user_id = ?", ownerID).First(&balance).Error)
	assert.Equal(t, 500000.0, balance.Balance)
	assert.Equal(t, 500000.0, balance.TotalEarned)

	var stats models.ReferrerStats
	require.NoError(t, settlement.DB.Where("user_id = ?", ownerID).First(&stats).Error)
	assert.EqualValues(t, 1, stats.SuccessfulReferrals)
	assert.Equal(t, 500000.0, stats.TotalCommission)
	assert.Equal(t, 500000.0, stats.ApprovedCommission)

	var mirror models.PilgrimUser
	require.NoError(t, settlement.DB.Where("external_user_id = ?", ownerID).First(&mirror).Error)
	assert.Equal(t, 500000.0, mirror.CommissionBalance)
}

func TestSettlePaymentIsIdempotent(t *testing.T) {
	settlement, referrals := newSettlementFixture(t)
	ownerID := seedReferrer(t, settlement.DB, "AGEN100", models.RoleAgent, 500000)
	_, err := referrals.RegisterReferral("AGEN100", "user-1")
	require.NoError(t, err)

	first, err := settlement.SettlePayment("user-1", "payment-1")
	require.NoError(t, err)
	require.True(t, first.Granted)

	second, err := settlement.SettlePayment("user-1", "payment-1")
	require.NoError(t, err)
	assert.False(t, second.Granted, "second settlement must be a no-op")

	var balance models.ReferralBalance
	require.NoError(t, settlement.DB.Where("user_id = ?", ownerID).First(&balance).Error)
	assert.Equal(t, 500000.0, balance.Balance, "balance must be unchanged by the duplicate")

	var stats models.ReferrerStats
	require.NoError(t, settlement.DB.Where("user_id = ?", ownerID).First(&stats).Error)
	assert.EqualValues(t, 1, stats.SuccessfulReferrals)
}

func TestSettlePaymentNotReferredUser(t *testing.T) {
	settlement, _ := newSettlementFixture(t)

	result, err := settlement.SettlePayment("random-user", "payment-1")
	require.NoError(t, err, "absence of a tracking record is not an error")
	assert.False(t, result.Granted)
	assert.Equal(t, "user was not referred", result.Message)
}

func TestSettlePaymentMissingStatsAbortsAtomically(t *testing.T) {
	settlement, referrals := newSettlementFixture(t)
	ownerID := seedReferrer(t, settlement.DB, "AGEN100", models.RoleAgent, 500000)
	_, err := referrals.RegisterReferral("AGEN100", "user-1")
	require.NoError(t, err)
	require.NoError(t, settlement.DB.Unscoped().
		Where("user_id = ?", ownerID).Delete(&models.ReferrerStats{}).Error)

	_, err = settlement.SettlePayment("user-1", "payment-1")
	require.Error(t, err)

	// No partial effect: tracking untouched, no balance row created.
	var tracking models.ReferralTracking
	require.NoError(t, settlement.DB.Where("referred_user_id = ?", "user-1").First(&tracking).Error)
	assert.False(t, tracking.CommissionGranted)
	assert.Equal(t, models.ReferralStatusRegistered, tracking.Status)

	var balanceCount int64
	require.NoError(t, settlement.DB.Model(&models.ReferralBalance{}).Count(&balanceCount).Error)
	assert.EqualValues(t, 0, balanceCount)
}

func TestSettlePaymentFallsBackToRoleRate(t *testing.T) {
	settlement, referrals := newSettlementFixture(t)
	ownerID := seedReferrer(t, settlement.DB, "ALUM200", models.RoleAlumni, 300000)
	_, err := referrals.RegisterReferral("ALUM200", "user-1")
	require.NoError(t, err)

	// Pre-snapshot tracking rows carry no amount; the fixed rate table fills in.
	require.NoError(t, settlement.DB.Model(&models.ReferralTracking{}).
		Where("referred_user_id = ?", "user-1").
		Update("commission_amount", 0).Error)

	result, err := settlement.SettlePayment("user-1", "payment-1")
	require.NoError(t, err)
	assert.True(t, result.Granted)
	assert.Equal(t, CommissionRateByRole[models.RoleAlumni], result.Amount)

	var balance models.ReferralBalance
	require.NoError(t, settlement.DB.Where("user_id = ?", ownerID).First(&balance).Error)
	assert.Equal(t, 300000.0, balance.Balance)
}
