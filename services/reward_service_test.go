package services

import (
	"sync"
	"testing"
	"time"

	"github.com/NewPyDev/Momentum/models"
)

func day(n int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seedBadge(t *testing.T, s *RewardService, name, criteriaType string, value int) models.Badge {
	t.Helper()
	badge := models.Badge{
		Name:          name,
		Tier:          models.BadgeTierBronze,
		CriteriaType:  criteriaType,
		CriteriaValue: value,
	}
	if err := s.db.Create(&badge).Error; err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	return badge
}

func TestPointsAndStreakAccrual(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)

	if err := rewards.OnGoalCompleted(db, user.ID, day(0)); err != nil {
		t.Fatalf("complete: %v", err)
	}

	var ledger models.RewardLedger
	if err := db.First(&ledger, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if ledger.TotalPoints != 50 || ledger.CurrentStreak != 1 || ledger.LongestStreak != 1 {
		t.Fatalf("ledger: points=%d streak=%d longest=%d",
			ledger.TotalPoints, ledger.CurrentStreak, ledger.LongestStreak)
	}
	if ledger.LastCompletionAt == nil || !ledger.LastCompletionAt.Equal(day(0)) {
		t.Fatalf("last completion not recorded: %v", ledger.LastCompletionAt)
	}
}

func TestStreakContinuesOnConsecutiveDays(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)

	for n := 0; n < 3; n++ {
		if err := rewards.OnGoalCompleted(db, user.ID, day(n)); err != nil {
			t.Fatalf("day %d: %v", n, err)
		}
	}

	state, err := rewards.GetRewardState(user.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.CurrentStreak != 3 || state.LongestStreak != 3 {
		t.Fatalf("streak=%d longest=%d", state.CurrentStreak, state.LongestStreak)
	}
}

func TestStreakCountsCompletionsSameDay(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)

	if err := rewards.OnGoalCompleted(db, user.ID, day(0)); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := rewards.OnGoalCompleted(db, user.ID, day(0).Add(2*time.Hour)); err != nil {
		t.Fatalf("second: %v", err)
	}

	state, err := rewards.GetRewardState(user.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.CurrentStreak != 2 {
		t.Fatalf("want streak 2, got %d", state.CurrentStreak)
	}
}

func TestStreakResetsAfterCalendarGap(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)

	if err := rewards.OnGoalCompleted(db, user.ID, day(0)); err != nil {
		t.Fatalf("day 0: %v", err)
	}
	if err := rewards.OnGoalCompleted(db, user.ID, day(1)); err != nil {
		t.Fatalf("day 1: %v", err)
	}

	// Пропуск двух календарных дней рвёт стрик
	if err := rewards.OnGoalCompleted(db, user.ID, day(4)); err != nil {
		t.Fatalf("day 4: %v", err)
	}

	state, err := rewards.GetRewardState(user.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.CurrentStreak != 1 {
		t.Fatalf("want streak 1 after gap, got %d", state.CurrentStreak)
	}
	if state.LongestStreak != 2 {
		t.Fatalf("longest must survive reset: want 2, got %d", state.LongestStreak)
	}
	if state.TotalPoints != 150 {
		t.Fatalf("points accumulate across resets: want 150, got %d", state.TotalPoints)
	}
}

func TestLateEveningToNextMorningKeepsStreak(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)

	evening := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	morning := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)

	if err := rewards.OnGoalCompleted(db, user.ID, evening); err != nil {
		t.Fatalf("evening: %v", err)
	}
	if err := rewards.OnGoalCompleted(db, user.ID, morning); err != nil {
		t.Fatalf("morning: %v", err)
	}

	state, err := rewards.GetRewardState(user.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.CurrentStreak != 2 {
		t.Fatalf("want streak 2, got %d", state.CurrentStreak)
	}
}

func TestBadgeAwardedOnceByPoints(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)
	badge := seedBadge(t, rewards, "First Victory", models.CriteriaPoints, 50)

	if err := rewards.OnGoalCompleted(db, user.ID, day(0)); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := rewards.OnGoalCompleted(db, user.ID, day(1)); err != nil {
		t.Fatalf("second: %v", err)
	}

	var count int64
	db.Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", user.ID, badge.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("badge must be awarded exactly once, got %d", count)
	}
}

func TestBadgeAwardedByStreak(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)
	seedBadge(t, rewards, "On a Roll", models.CriteriaStreak, 2)

	if err := rewards.OnGoalCompleted(db, user.ID, day(0)); err != nil {
		t.Fatalf("first: %v", err)
	}

	state, err := rewards.GetRewardState(user.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.Badges) != 0 {
		t.Fatalf("badge awarded too early: %v", state.Badges)
	}

	if err := rewards.OnGoalCompleted(db, user.ID, day(1)); err != nil {
		t.Fatalf("second: %v", err)
	}

	state, err = rewards.GetRewardState(user.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.Badges) != 1 || state.Badges[0].Name != "On a Roll" {
		t.Fatalf("want On a Roll badge, got %v", state.Badges)
	}
}

func TestGetRewardStateCreatesLedgerLazily(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)

	state, err := rewards.GetRewardState(user.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.TotalPoints != 0 || state.CurrentStreak != 0 || len(state.Badges) != 0 {
		t.Fatalf("fresh state not zeroed: %+v", state)
	}

	var count int64
	db.Model(&models.RewardLedger{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Fatalf("ledger row not created, count=%d", count)
	}
}

func TestLazyLedgerCreateIsConflictFree(t *testing.T) {
	db, _, rewards := newTestServices(t)
	user := createTestUser(t, db, false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rewards.GetRewardState(user.ID); err != nil {
				t.Errorf("concurrent first read: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	db.Model(&models.RewardLedger{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Fatalf("want exactly one ledger row, got %d", count)
	}

	// Существующий леджер не затирается нулями
	if err := rewards.OnGoalCompleted(db, user.ID, day(0)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	ledger, err := loadOrCreateLedger(db, user.ID)
	if err != nil {
		t.Fatalf("reload ledger: %v", err)
	}
	if ledger.TotalPoints != 50 {
		t.Fatalf("want 50 points preserved, got %d", ledger.TotalPoints)
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	cases := []struct {
		from, to time.Time
		want     int
	}{
		{day(0), day(0).Add(3 * time.Hour), 0},
		{time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC), 1},
		{day(0), day(2), 2},
		{day(0), day(7), 7},
	}
	for _, tc := range cases {
		if got := calendarDaysBetween(tc.from, tc.to); got != tc.want {
			t.Errorf("calendarDaysBetween(%v, %v) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}
