// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"umrah-ops-system/models"
	"umrah-ops-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserSyncClient pulls changed users from the agency core app into the
// local pilgrim_users mirror.
type UserSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewUserSyncClient(db *gorm.DB) *UserSyncClient {
	baseURL := os.Getenv("CORE_APP_URL")
	if baseURL == "" {
		log.Fatal("CORE_APP_URL environment variable is required")
	}
	token := os.Getenv("OPS_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("OPS_SERVICE_TOKEN environment variable is required for user sync")
	}

	return &UserSyncClient{
		BaseURL:    baseURL,
		Token:      token,
		DB:         db,
		HTTPClient: utils.HTTPClient,
	}
}

func (c *UserSyncClient) GetChangedUsers(ctx context.Context, since time.Time) ([]models.RemoteUser, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/users", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call core app: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("core app returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Users []models.RemoteUser `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode core app response: %w", err)
	}

	return response.Users, nil
}

// PollUsers keeps the pilgrim_users mirror current. On upsert failure the
// sync window is not advanced, so the same batch is retried next tick.
func PollUsers(ctx context.Context, client *UserSyncClient, pollInterval time.Duration) {
	log.Println("Starting user mirror polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("User polling stopped.")
			return
		case <-ticker.C:
			tickTime := time.Now().UTC()

			remoteUsers, err := client.GetChangedUsers(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling users: %v", err)
				continue
			}

			count := len(remoteUsers)
			if count == 0 {
				continue
			}
			log.Printf("📥 Received %d user change(s) from core app.", count)

			mirrors := make([]models.PilgrimUser, 0, count)
			for _, ru := range remoteUsers {
				mirrors = append(mirrors, models.PilgrimUser{
					ID:             uuid.NewString(),
					ExternalUserID: ru.ExternalID,
					FullName:       ru.FullName,
					Email:          ru.Email,
					Phone:          ru.Phone,
					Role:           models.UserRole(ru.Role),
					ReferralCode:   ru.ReferralCode,
					IsActive:       ru.IsActive,
				})
			}

			// Batch upsert keyed on the core app's user id. The commission
			// balance mirror is deliberately NOT overwritten — settlement
			// owns that column.
			if err := client.DB.Clauses(
				clause.OnConflict{
					Columns: []clause.Column{{Name: "external_user_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"full_name",
						"email",
						"phone",
						"role",
						"referral_code",
						"is_active",
						"updated_at",
					}),
				},
			).Create(&mirrors).Error; err != nil {
				log.Printf("❌ Failed to upsert %d user(s) into pilgrim_users: %v", count, err)
				// Do NOT update lastSyncTime on failure — retry same window next tick
				continue
			}

			lastSyncTime = tickTime
			log.Printf("✅ Upserted %d user(s) into pilgrim_users.", count)
		}
	}
}
