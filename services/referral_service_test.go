package services

import (
	"testing"

	"umrah-ops-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReferralService(t *testing.T) *ReferralService {
	db := newTestDB(t)
	return NewReferralService(db, NewNotificationService(db))
}

func TestRegisterReferralCreatesTrackingAndCountsReferrals(t *testing.T) {
	svc := newReferralService(t)
	ownerID := seedReferrer(t, svc.DB, "AGEN100", models.RoleAgent, 500000)

	first, err := svc.RegisterReferral("AGEN100", "user-1")
	require.NoError(t, err)
	second, err := svc.RegisterReferral("AGEN100", "user-2")
	require.NoError(t, err)

	assert.Equal(t, models.ReferralStatusRegistered, first.Status)
	assert.Equal(t, ownerID, first.ReferrerID)
	assert.Equal(t, 500000.0, first.CommissionAmount)
	assert.False(t, first.HasUpgraded)
	assert.False(t, first.HasPaid)
	assert.False(t, first.CommissionGranted)
	assert.Equal(t, "user-2", second.ReferredUserID)

	var trackingCount int64
	require.NoError(t, svc.DB.Model(&models.ReferralTracking{}).Count(&trackingCount).Error)
	assert.EqualValues(t, 2, trackingCount)

	var stats models.ReferrerStats
	require.NoError(t, svc.DB.Where("user_id = ?", ownerID).First(&stats).Error)
	assert.EqualValues(t, 2, stats.TotalReferrals)
	assert.EqualValues(t, 0, stats.SuccessfulReferrals)
}

func TestRegisterReferralLowercaseCodeResolvesIdentically(t *testing.T) {
	svc := newReferralService(t)
	ownerID := seedReferrer(t, svc.DB, "AGEN100", models.RoleAgent, 500000)

	tracking, err := svc.RegisterReferral("  agen100 ", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "AGEN100", tracking.ReferralCode)
	assert.Equal(t, ownerID, tracking.ReferrerID)
}

func TestRegisterReferralEmptyCodeNoSideEffects(t *testing.T) {
	svc := newReferralService(t)

	_, err := svc.RegisterReferral("   ", "user-1")
	assert.ErrorIs(t, err, ErrEmptyReferralCode)

	var trackingCount int64
	require.NoError(t, svc.DB.Model(&models.ReferralTracking{}).Count(&trackingCount).Error)
	assert.EqualValues(t, 0, trackingCount)
}

func TestRegisterReferralUnknownCode(t *testing.T) {
	svc := newReferralService(t)

	_, err := svc.RegisterReferral("NOPE999", "user-1")
	assert.ErrorIs(t, err, ErrReferralCodeNotFound)

	var codeCount int64
	require.NoError(t, svc.DB.Model(&models.ReferralCode{}).Count(&codeCount).Error)
	assert.EqualValues(t, 0, codeCount, "failed resolution must not leave partial writes")
}

func TestRegisterReferralInactiveCode(t *testing.T) {
	svc := newReferralService(t)
	seedReferrer(t, svc.DB, "AGEN100", models.RoleAgent, 500000)
	require.NoError(t, svc.DB.Model(&models.ReferralCode{}).
		Where("code = ?", "AGEN100").Update("is_active", false).Error)

	_, err := svc.RegisterReferral("AGEN100", "user-1")
	assert.ErrorIs(t, err, ErrReferralCodeInactive)
}

func TestResolveCodeRecoversLegacyStatsRow(t *testing.T) {
	svc := newReferralService(t)
	ownerID := uuid.NewString()
	require.NoError(t, svc.DB.Create(&models.ReferrerStats{
		ID:           uuid.NewString(),
		UserID:       ownerID,
		Role:         models.RoleAlumni,
		ReferralCode: "LEGACY1",
	}).Error)

	rc, err := svc.ResolveCode("legacy1")
	require.NoError(t, err)
	assert.Equal(t, "LEGACY1", rc.Code)
	assert.Equal(t, ownerID, rc.OwnerID)
	assert.Equal(t, models.RoleAlumni, rc.OwnerRole)
	assert.Equal(t, CommissionRateByRole[models.RoleAlumni], rc.CommissionPerPaidUser)
	assert.True(t, rc.IsActive)

	// The synthesized registry entry is persisted, so the next lookup hits
	// the registry directly.
	var registered models.ReferralCode
	require.NoError(t, svc.DB.Where("code = ?", "LEGACY1").First(&registered).Error)
}

func TestResolveCodeRecoversLegacyUserRow(t *testing.T) {
	svc := newReferralService(t)
	ownerID := uuid.NewString()
	require.NoError(t, svc.DB.Create(&models.PilgrimUser{
		ID:             uuid.NewString(),
		ExternalUserID: ownerID,
		FullName:       "Legacy Agent",
		Role:           models.RoleAgent,
		ReferralCode:   "OLDUSER7",
		IsActive:       true,
	}).Error)

	rc, err := svc.ResolveCode("OLDUSER7")
	require.NoError(t, err)
	assert.Equal(t, ownerID, rc.OwnerID)
	assert.Equal(t, CommissionRateByRole[models.RoleAgent], rc.CommissionPerPaidUser)

	// Case (b) recovery also backfills the stats row.
	var stats models.ReferrerStats
	require.NoError(t, svc.DB.Where("user_id = ?", ownerID).First(&stats).Error)
	assert.Equal(t, "OLDUSER7", stats.ReferralCode)
}

func TestRegisterReferralIneligibleOwnerRole(t *testing.T) {
	svc := newReferralService(t)
	require.NoError(t, svc.DB.Create(&models.PilgrimUser{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		FullName:       "Plain Pilgrim",
		Role:           models.RoleJamaah,
		ReferralCode:   "JAMAAH1",
		IsActive:       true,
	}).Error)

	_, err := svc.RegisterReferral("JAMAAH1", "user-1")
	assert.ErrorIs(t, err, ErrIneligibleOwnerRole)

	var trackingCount int64
	require.NoError(t, svc.DB.Model(&models.ReferralTracking{}).Count(&trackingCount).Error)
	assert.EqualValues(t, 0, trackingCount)
}

func TestTrackUpgrade(t *testing.T) {
	svc := newReferralService(t)
	seedReferrer(t, svc.DB, "AGEN100", models.RoleAgent, 500000)
	_, err := svc.RegisterReferral("AGEN100", "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.TrackUpgrade("user-1"))

	var tracking models.ReferralTracking
	require.NoError(t, svc.DB.Where("referred_user_id = ?", "user-1").First(&tracking).Error)
	assert.Equal(t, models.ReferralStatusUpgraded, tracking.Status)
	assert.True(t, tracking.HasUpgraded)
	require.NotNil(t, tracking.UpgradedAt)

	// Idempotent re-invocation.
	require.NoError(t, svc.TrackUpgrade("user-1"))
	require.NoError(t, svc.DB.Where("referred_user_id = ?", "user-1").First(&tracking).Error)
	assert.Equal(t, models.ReferralStatusUpgraded, tracking.Status)
}

func TestTrackUpgradeUnknownUserIsNoOp(t *testing.T) {
	svc := newReferralService(t)
	assert.NoError(t, svc.TrackUpgrade("nobody"))
}

func TestTrackUpgradeNeverRegressesApproved(t *testing.T) {
	svc := newReferralService(t)
	seedReferrer(t, svc.DB, "AGEN100", models.RoleAgent, 500000)
	_, err := svc.RegisterReferral("AGEN100", "user-1")
	require.NoError(t, err)
	require.NoError(t, svc.DB.Model(&models.ReferralTracking{}).
		Where("referred_user_id = ?", "user-1").
		Update("status", models.ReferralStatusApproved).Error)

	require.NoError(t, svc.TrackUpgrade("user-1"))

	var tracking models.ReferralTracking
	require.NoError(t, svc.DB.Where("referred_user_id = ?", "user-1").First(&tracking).Error)
	assert.Equal(t, models.ReferralStatusApproved, tracking.Status, "status only moves forward")
	assert.True(t, tracking.HasUpgraded)
}

func TestIssueCode(t *testing.T) {
	svc := newReferralService(t)
	ownerID := uuid.NewString()
	require.NoError(t, svc.DB.Create(&models.PilgrimUser{
		ID:             uuid.NewString(),
		ExternalUserID: ownerID,
		FullName:       "Ahmad Fauzi",
		Role:           models.RoleAlumni,
		IsActive:       true,
	}).Error)

	rc, err := svc.IssueCode(ownerID)
	require.NoError(t, err)
	assert.Contains(t, rc.Code, "AHMAD")
	assert.Equal(t, CommissionRateByRole[models.RoleAlumni], rc.CommissionPerPaidUser)

	var stats models.ReferrerStats
	require.NoError(t, svc.DB.Where("user_id = ?", ownerID).First(&stats).Error)
	assert.Equal(t, rc.Code, stats.ReferralCode)

	// Re-issuing returns the existing code.
	again, err := svc.IssueCode(ownerID)
	require.NoError(t, err)
	assert.Equal(t, rc.Code, again.Code)
}

func TestIssueCodeIneligibleRole(t *testing.T) {
	svc := newReferralService(t)
	ownerID := uuid.NewString()
	require.NoError(t, svc.DB.Create(&models.PilgrimUser{
		ID:             uuid.NewString(),
		ExternalUserID: ownerID,
		FullName:       "Plain Pilgrim",
		Role:           models.RoleJamaah,
		IsActive:       true,
	}).Error)

	_, err := svc.IssueCode(ownerID)
	assert.ErrorIs(t, err, ErrIneligibleOwnerRole)
}
