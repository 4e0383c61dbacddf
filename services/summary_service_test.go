package services

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
)

func TestCalculateUserGoalSummary(t *testing.T) {
	db, goals, _ := newTestServices(t)
	summary := NewSummaryService(db, zap.NewNop())
	user := createTestUser(t, db, true)

	// Три цели: выполнена, наполовину, пустая
	for i, completed := range []int{2, 1, 0} {
		goal := mustCreateGoal(t, goals, user.ID, 2)
		for j := 0; j < 2; j++ {
			step := mustCreateStep(t, goals, user.ID, goal.ID, fmt.Sprintf("step %d.%d", i, j))
			if j < completed {
				if _, err := goals.ToggleStep(user.ID, goal.ID, step.ID); err != nil {
					t.Fatalf("toggle: %v", err)
				}
			}
		}
	}

	got, err := summary.CalculateUserGoalSummary(user.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if got.TotalGoals != 3 {
		t.Fatalf("want 3 goals, got %d", got.TotalGoals)
	}
	if got.CompletedGoals != 1 {
		t.Fatalf("want 1 completed goal, got %d", got.CompletedGoals)
	}
	if len(got.GoalStats) != 3 {
		t.Fatalf("want stats for 3 goals, got %d", len(got.GoalStats))
	}

	// (100 + 50 + 0) / 3
	if got.OverallRate != 50 {
		t.Fatalf("want overall rate 50, got %v", got.OverallRate)
	}

	for _, stat := range got.GoalStats {
		if stat.StepCount != 2 {
			t.Fatalf("goal %d: want 2 steps, got %d", stat.GoalID, stat.StepCount)
		}
	}
}

func TestSummaryEmptyForUserWithoutGoals(t *testing.T) {
	db, _, _ := newTestServices(t)
	summary := NewSummaryService(db, zap.NewNop())
	user := createTestUser(t, db, false)

	got, err := summary.CalculateUserGoalSummary(user.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.TotalGoals != 0 || got.CompletedGoals != 0 || len(got.GoalStats) != 0 {
		t.Fatalf("want empty summary, got %+v", got)
	}
}
