package services

import (
	"testing"

	"umrah-ops-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One in-memory database per test; a second pooled connection would see
	// an empty schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.PilgrimUser{},
		&models.ReferralCode{},
		&models.ReferralTracking{},
		&models.ReferrerStats{},
		&models.ReferralBalance{},
		&models.CommissionWithdrawal{},
		&models.Payment{},
		&models.Notification{},
	))

	return db
}

// seedReferrer creates a synced user, registry code and stats row for a
// commission-eligible referrer, mimicking what code issuance produces.
func seedReferrer(t *testing.T, db *gorm.DB, code string, role models.UserRole, commission float64) string {
	t.Helper()

	ownerID := uuid.NewString()
	require.NoError(t, db.Create(&models.PilgrimUser{
		ID:             uuid.NewString(),
		ExternalUserID: ownerID,
		FullName:       "Test Referrer",
		Role:           role,
		IsActive:       true,
	}).Error)
	require.NoError(t, db.Create(&models.ReferralCode{
		ID:                    uuid.NewString(),
		Code:                  code,
		OwnerID:               ownerID,
		OwnerRole:             role,
		CommissionPerPaidUser: commission,
		IsActive:              true,
	}).Error)
	require.NoError(t, db.Create(&models.ReferrerStats{
		ID:           uuid.NewString(),
		UserID:       ownerID,
		Role:         role,
		ReferralCode: code,
	}).Error)

	return ownerID
}
