package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NewPyDev/Momentum/cache"
	"github.com/NewPyDev/Momentum/config"
	"github.com/NewPyDev/Momentum/models"
)

type GoalInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	TotalSteps  int    `json:"total_steps" validate:"min=1"`
}

type GoalUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Emoji       *string `json:"emoji"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	TotalSteps  *int    `json:"total_steps" validate:"omitempty,min=1"`
}

type StepInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type StepUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
}

// GoalService отвечает за цели и их шаги: CRUD, пересчёт агрегата
// completed_steps и проверку лимита тарифа при создании.
type GoalService struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       config.Config
	rewards   *RewardService
	goalLocks *keyedLocks
	userLocks *keyedLocks
}

func NewGoalService(db *gorm.DB, log *zap.Logger, cfg config.Config, rewards *RewardService) *GoalService {
	return &GoalService{
		db:        db,
		log:       log,
		cfg:       cfg,
		rewards:   rewards,
		goalLocks: newKeyedLocks(),
		userLocks: newKeyedLocks(),
	}
}

// CreateGoal проверяет лимит тарифа и создаёт цель. Подсчёт целей и вставка
// идут в одной транзакции под замком пользователя, чтобы два параллельных
// запроса не прошли проверку на count=4 одновременно.
func (s *GoalService) CreateGoal(userID uint, in GoalInput) (*models.Goal, error) {
	s.userLocks.Lock(userID)
	defer s.userLocks.Unlock(userID)

	var goal models.Goal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Тариф читается свежим: подписка могла поменяться только что
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !user.IsPremium {
			var count int64
			if err := tx.Model(&models.Goal{}).
				Where("user_id = ?", userID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(s.cfg.FreeGoalLimit) {
				return ErrQuotaExceeded
			}
		}

		goal = models.Goal{
			UserID:      userID,
			Title:       in.Title,
			Description: in.Description,
			Emoji:       in.Emoji,
			ImageURL:    in.ImageURL,
			TotalSteps:  in.TotalSteps,
		}
		return tx.Create(&goal).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(userID)
	s.log.Info("goal_created",
		zap.Uint("user_id", userID),
		zap.Uint("goal_id", goal.ID),
		zap.Int("total_steps", goal.TotalSteps),
	)
	return &goal, nil
}

func (s *GoalService) ListGoals(userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	if err := s.db.Preload("Steps").
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *GoalService) GetGoal(userID, goalID uint) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Preload("Steps").
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func (s *GoalService) UpdateGoal(userID, goalID uint, in GoalUpdate) (*models.Goal, error) {
	s.goalLocks.Lock(goalID)
	defer s.goalLocks.Unlock(goalID)

	var goal models.Goal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if in.Title != nil {
			goal.Title = *in.Title
		}
		if in.Description != nil {
			goal.Description = *in.Description
		}
		if in.Emoji != nil {
			goal.Emoji = *in.Emoji
		}
		if in.ImageURL != nil {
			goal.ImageURL = *in.ImageURL
		}
		if in.TotalSteps != nil {
			goal.TotalSteps = *in.TotalSteps
		}

		return tx.Save(&goal).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(userID)
	return &goal, nil
}

func (s *GoalService) DeleteGoal(userID, goalID uint) error {
	s.goalLocks.Lock(goalID)
	defer s.goalLocks.Unlock(goalID)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var goal models.Goal
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Каскад: сначала шаги, потом сама цель
		if err := tx.Where("goal_id = ?", goalID).Delete(&models.Step{}).Error; err != nil {
			return err
		}
		return tx.Delete(&goal).Error
	})
	if err != nil {
		return err
	}

	s.invalidateSummary(userID)
	s.log.Info("goal_deleted", zap.Uint("user_id", userID), zap.Uint("goal_id", goalID))
	return nil
}

// CreateStep добавляет шаг к цели. Новый шаг всегда невыполненный.
func (s *GoalService) CreateStep(userID, goalID uint, in StepInput) (*models.Step, error) {
	var step models.Step

	err := s.mutateGoal(userID, goalID, func(tx *gorm.DB, goal *models.Goal) error {
		step = models.Step{
			GoalID:      goalID,
			Title:       in.Title,
			Description: in.Description,
		}
		return tx.Create(&step).Error
	})
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (s *GoalService) UpdateStep(userID, goalID, stepID uint, in StepUpdate) (*models.Step, error) {
	var step models.Step

	err := s.mutateGoal(userID, goalID, func(tx *gorm.DB, goal *models.Goal) error {
		if err := findStep(tx, goalID, stepID, &step); err != nil {
			return err
		}

		if in.Title != nil {
			step.Title = *in.Title
		}
		if in.Description != nil {
			step.Description = *in.Description
		}
		if in.IsCompleted != nil {
			step.IsCompleted = *in.IsCompleted
		}

		return tx.Save(&step).Error
	})
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (s *GoalService) ToggleStep(userID, goalID, stepID uint) (*models.Step, error) {
	var step models.Step

	err := s.mutateGoal(userID, goalID, func(tx *gorm.DB, goal *models.Goal) error {
		if err := findStep(tx, goalID, stepID, &step); err != nil {
			return err
		}

		step.IsCompleted = !step.IsCompleted
		return tx.Save(&step).Error
	})
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (s *GoalService) DeleteStep(userID, goalID, stepID uint) error {
	return s.mutateGoal(userID, goalID, func(tx *gorm.DB, goal *models.Goal) error {
		var step models.Step
		if err := findStep(tx, goalID, stepID, &step); err != nil {
			return err
		}
		return tx.Delete(&step).Error
	})
}

// mutateGoal — единственный путь для всех мутаций шагов: проверка владения
// ДО мутации, сама мутация, пересчёт агрегата и начисление награды при
// переходе прогресса через 100 — всё в одной транзакции.
//
// Порядок замков фиксированный: цель, затем пользователь. Замок пользователя
// держится до возврата транзакции: если отпустить его раньше коммита,
// параллельное завершение другой цели прочитает леджер до видимости этой
// записи и затрёт начисление.
func (s *GoalService) mutateGoal(userID, goalID uint, fn func(tx *gorm.DB, goal *models.Goal) error) error {
	s.goalLocks.Lock(goalID)
	defer s.goalLocks.Unlock(goalID)
	s.userLocks.Lock(userID)
	defer s.userLocks.Unlock(userID)

	completed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var goal models.Goal
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		before := goal.Progress()

		if err := fn(tx, &goal); err != nil {
			return err
		}

		after, err := s.recomputeProgress(tx, &goal)
		if err != nil {
			return err
		}

		if before < 100 && after >= 100 {
			completed = true
			if err := s.rewards.OnGoalCompleted(tx, userID, time.Now().UTC()); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateSummary(userID)
	if completed {
		// Кэш наград сбрасывается только после коммита: сброс внутри
		// транзакции позволил бы параллельному чтению снова закэшировать
		// ещё не закоммиченное состояние
		s.rewards.invalidateCached(userID)
		s.log.Info("goal_completed",
			zap.Uint("user_id", userID),
			zap.Uint("goal_id", goalID),
		)
	}
	return nil
}

// recomputeProgress пересчитывает completed_steps из живого набора шагов.
// Идемпотентно: никаких инкрементов по месту, только полный пересчёт.
func (s *GoalService) recomputeProgress(tx *gorm.DB, goal *models.Goal) (int, error) {
	var count int64
	if err := tx.Model(&models.Step{}).
		Where("goal_id = ? AND is_completed = ?", goal.ID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}

	if err := tx.Model(goal).Update("completed_steps", int(count)).Error; err != nil {
		return 0, err
	}

	goal.CompletedSteps = int(count)
	return goal.Progress(), nil
}

func findStep(tx *gorm.DB, goalID, stepID uint, dest *models.Step) error {
	if err := tx.Where("id = ? AND goal_id = ?", stepID, goalID).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *GoalService) invalidateSummary(userID uint) {
	key := fmt.Sprintf("summary:%d", userID)
	if err := cache.Delete(key); err != nil && !errors.Is(err, cache.ErrDisabled) {
		s.log.Warn("cache_delete_failed", zap.String("key", key), zap.Error(err))
	}
}
