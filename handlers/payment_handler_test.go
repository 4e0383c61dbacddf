package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NewPyDev/Momentum/config"
	"github.com/NewPyDev/Momentum/models"
	"github.com/NewPyDev/Momentum/services"
	"github.com/NewPyDev/Momentum/utils"
)

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Goal{}, &models.Step{},
		&models.RewardLedger{}, &models.Badge{}, &models.UserBadge{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Config{FreeGoalLimit: 5, PointsPerGoal: 50}
	rewardService := services.NewRewardService(db, utils.Logger, cfg)
	goalService := services.NewGoalService(db, utils.Logger, cfg, rewardService)
	subscriptionService := services.NewSubscriptionService(db, utils.Logger, cfg)
	summaryService := services.NewSummaryService(db, utils.Logger)
	Setup(goalService, rewardService, subscriptionService, summaryService)

	r := gin.New()
	r.POST("/api/payments/webhook", PaymentWebhook)
	return r, db
}

func postWebhook(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookActivatesSubscription(t *testing.T) {
	r, db := newWebhookRouter(t)

	user := models.User{Username: "alice", Email: "alice@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	payload := fmt.Sprintf(
		`{"alert_name":"subscription_created","passthrough":"%d","subscription_id":"sub_42"}`,
		user.ID,
	)
	w := postWebhook(t, r, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.User
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !got.IsPremium {
		t.Fatal("user not premium after webhook")
	}
}

func TestWebhookAcksUnknownEvents(t *testing.T) {
	r, _ := newWebhookRouter(t)

	cases := []string{
		`{"alert_name":"payment_refunded"}`,
		`{"alert_name":"subscription_created","passthrough":"99999","subscription_id":"sub_x"}`,
		`{"alert_name":"subscription_cancelled","subscription_id":"sub_unknown"}`,
	}
	for _, payload := range cases {
		w := postWebhook(t, r, payload)
		if w.Code != http.StatusOK {
			t.Errorf("payload %s: want 200, got %d", payload, w.Code)
		}
	}
}

func TestWebhookAcksMalformedPayload(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := postWebhook(t, r, `{not json`)
	if w.Code != http.StatusOK {
		t.Fatalf("malformed payload must be acked: got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("want status ok, got %v", resp)
	}
}
