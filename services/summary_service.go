package services

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NewPyDev/Momentum/cache"
	"github.com/NewPyDev/Momentum/models"
)

type GoalStats struct {
	GoalID         uint   `json:"goal_id"`
	Title          string `json:"title"`
	TotalSteps     int    `json:"total_steps"`
	CompletedSteps int    `json:"completed_steps"`
	StepCount      int    `json:"step_count"`
	Progress       int    `json:"progress"`
	Error          error  `json:"-"`
}

type UserGoalSummary struct {
	UserID         uint          `json:"user_id"`
	TotalGoals     int           `json:"total_goals"`
	CompletedGoals int           `json:"completed_goals"`
	OverallRate    float64       `json:"overall_completion_rate"`
	GoalStats      []GoalStats   `json:"goal_stats"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
}

// SummaryService считает сводку по целям для дашборда. Статистика каждой
// цели независима, поэтому считается в отдельной горутине; результаты
// собираются через channel. Сводка кэшируется и сбрасывается при любой
// мутации целей/шагов.
type SummaryService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSummaryService(db *gorm.DB, log *zap.Logger) *SummaryService {
	return &SummaryService{db: db, log: log}
}

func (s *SummaryService) CalculateUserGoalSummary(userID uint) (*UserGoalSummary, error) {
	startTime := time.Now()

	cacheKey := fmt.Sprintf("summary:%d", userID)
	var cached UserGoalSummary
	if err := cache.Get(cacheKey, &cached); err == nil {
		s.log.Info("cache_hit", zap.String("key", cacheKey))
		return &cached, nil
	}

	var goals []models.Goal
	if err := s.db.Where("user_id = ?", userID).Find(&goals).Error; err != nil {
		return nil, err
	}

	if len(goals) == 0 {
		return &UserGoalSummary{UserID: userID}, nil
	}

	statsChan := make(chan GoalStats, len(goals))
	var wg sync.WaitGroup

	for _, goal := range goals {
		wg.Add(1)
		go func(g models.Goal) {
			defer wg.Done()
			statsChan <- s.calculateSingleGoalStats(g)
		}(goal)
	}

	go func() {
		wg.Wait()
		close(statsChan)
	}()

	var goalStats []GoalStats
	var totalRate float64
	completedGoals := 0

	for stat := range statsChan {
		if stat.Error != nil {
			s.log.Warn("goal_stats_error",
				zap.Uint("goal_id", stat.GoalID),
				zap.Error(stat.Error),
			)
			continue
		}
		goalStats = append(goalStats, stat)
		totalRate += float64(stat.Progress)
		if stat.Progress >= 100 {
			completedGoals++
		}
	}

	overallRate := 0.0
	if len(goalStats) > 0 {
		overallRate = totalRate / float64(len(goalStats))
	}

	result := &UserGoalSummary{
		UserID:         userID,
		TotalGoals:     len(goals),
		CompletedGoals: completedGoals,
		OverallRate:    overallRate,
		GoalStats:      goalStats,
		ProcessingTime: time.Since(startTime),
	}

	cache.Set(cacheKey, result, 5*time.Minute)

	s.log.Info("summary_calculated",
		zap.Uint("user_id", userID),
		zap.Int("goals_count", len(goals)),
		zap.Duration("duration", result.ProcessingTime),
	)

	return result, nil
}

func (s *SummaryService) calculateSingleGoalStats(goal models.Goal) GoalStats {
	stats := GoalStats{
		GoalID:     goal.ID,
		Title:      goal.Title,
		TotalSteps: goal.TotalSteps,
	}

	var steps []models.Step
	if err := s.db.Where("goal_id = ?", goal.ID).Find(&steps).Error; err != nil {
		stats.Error = err
		return stats
	}

	stats.StepCount = len(steps)
	for _, step := range steps {
		if step.IsCompleted {
			stats.CompletedSteps++
		}
	}

	// Прогресс считается от живого набора шагов, а не от сохранённого
	// агрегата: сводка не должна маскировать рассинхрон
	live := models.Goal{TotalSteps: goal.TotalSteps, CompletedSteps: stats.CompletedSteps}
	stats.Progress = live.Progress()

	return stats
}
