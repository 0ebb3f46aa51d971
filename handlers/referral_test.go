package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"umrah-ops-system/models"
	"umrah-ops-system/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
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

	app := fiber.New()
	notifications := services.NewNotificationService(db)
	SetupReferralRoutes(app, services.NewReferralService(db, notifications))
	SetupWithdrawalRoutes(app, services.NewWithdrawalService(db, notifications), services.NewReconciliationService(db))
	return app, db
}

func jsonRequest(method, target, userID string, payload interface{}) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req
}

func TestRegisterReferralEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	ownerID := uuid.NewString()
	require.NoError(t, db.Create(&models.ReferralCode{
		ID:                    uuid.NewString(),
		Code:                  "AGEN100",
		OwnerID:               ownerID,
		OwnerRole:             models.RoleAgent,
		CommissionPerPaidUser: 500000,
		IsActive:              true,
	}).Error)

	resp, err := app.Test(jsonRequest("POST", "/referrals/register", "new-user-1", map[string]string{
		"code": "agen100",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var tracking models.ReferralTracking
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tracking))
	assert.Equal(t, "AGEN100", tracking.ReferralCode)
	assert.Equal(t, "new-user-1", tracking.ReferredUserID)
}

func TestRegisterReferralEndpointUnknownCode(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/referrals/register", "new-user-1", map[string]string{
		"code": "NOPE999",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSecuredRoutesRequireUserContext(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/referrals/register", "", map[string]string{
		"code": "AGEN100",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBalanceEndpointFormatsRupiah(t *testing.T) {
	app, db := newTestApp(t)
	require.NoError(t, db.Create(&models.ReferralBalance{
		ID:      uuid.NewString(),
		UserID:  "referrer-1",
		Balance: 500000,
	}).Error)

	req := httptest.NewRequest("GET", "/balance", nil)
	req.Header.Set("X-User-ID", "referrer-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Rp 500.000", body["balance_formatted"])
	assert.Equal(t, 500000.0, body["balance"])
}
