package services

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NewPyDev/Momentum/config"
	"github.com/NewPyDev/Momentum/models"
)

func testConfig() config.Config {
	return config.Config{
		FreeGoalLimit: 5,
		PointsPerGoal: 50,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Одно соединение, иначе каждый коннект пула видит свою пустую in-memory БД
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Goal{},
		&models.Step{},
		&models.RewardLedger{},
		&models.Badge{},
		&models.UserBadge{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, premium bool) models.User {
	t.Helper()

	var count int64
	db.Model(&models.User{}).Count(&count)

	user := models.User{
		Username:  fmt.Sprintf("user%d", count+1),
		Email:     fmt.Sprintf("user%d@example.com", count+1),
		IsPremium: premium,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newTestServices(t *testing.T) (*gorm.DB, *GoalService, *RewardService) {
	t.Helper()

	db := newTestDB(t)
	log := zap.NewNop()
	cfg := testConfig()

	rewards := NewRewardService(db, log, cfg)
	goals := NewGoalService(db, log, cfg, rewards)
	return db, goals, rewards
}
