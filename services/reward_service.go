package services

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NewPyDev/Momentum/cache"
	"github.com/NewPyDev/Momentum/config"
	"github.com/NewPyDev/Momentum/models"
	"github.com/NewPyDev/Momentum/utils"
)

// RewardState — проекция леджера для ответа API.
type RewardState struct {
	TotalPoints   int           `json:"total_points"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	Badges        []EarnedBadge `json:"badges"`
}

type EarnedBadge struct {
	models.Badge
	EarnedAt time.Time `json:"earned_at"`
}

// RewardService ведёт леджер наград: очки, стрики и бейджи.
type RewardService struct {
	db  *gorm.DB
	log *zap.Logger
	cfg config.Config
}

func NewRewardService(db *gorm.DB, log *zap.Logger, cfg config.Config) *RewardService {
	return &RewardService{db: db, cfg: cfg, log: log}
}

// OnGoalCompleted вызывается ровно один раз на переход прогресса цели через
// 100 и выполняется в транзакции вызывающего: очки, стрик и бейджи либо
// записываются все вместе, либо не записываются вовсе. Замков метод не берёт:
// вызывающий обязан держать замок пользователя до коммита своей транзакции,
// иначе параллельное начисление прочитает ещё не видимый леджер.
func (s *RewardService) OnGoalCompleted(tx *gorm.DB, userID uint, now time.Time) error {
	ledger, err := loadOrCreateLedger(tx, userID)
	if err != nil {
		return err
	}

	// Стрик сбрасывается, если между выполнениями прошло больше одного
	// полного календарного дня (UTC)
	if ledger.LastCompletionAt != nil && calendarDaysBetween(*ledger.LastCompletionAt, now) > 1 {
		ledger.CurrentStreak = 0
	}

	ledger.CurrentStreak++
	if ledger.CurrentStreak > ledger.LongestStreak {
		ledger.LongestStreak = ledger.CurrentStreak
	}

	ledger.TotalPoints += s.cfg.PointsPerGoal
	ledger.LastCompletionAt = &now

	if err := tx.Save(ledger).Error; err != nil {
		return err
	}

	awarded, err := s.evaluateBadges(tx, ledger)
	if err != nil {
		return err
	}

	utils.GoalsCompleted.Inc()
	utils.PointsAwarded.Add(float64(s.cfg.PointsPerGoal))

	s.log.Info("ledger_updated",
		zap.Uint("user_id", userID),
		zap.Int("total_points", ledger.TotalPoints),
		zap.Int("current_streak", ledger.CurrentStreak),
		zap.Int("badges_awarded", awarded),
	)
	return nil
}

// GetRewardState возвращает очки, стрики и заработанные бейджи. Если леджера
// ещё нет, создаёт нулевой (ленивая инициализация, как и при регистрации).
func (s *RewardService) GetRewardState(userID uint) (*RewardState, error) {
	var state *RewardState

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := loadOrCreateLedger(tx, userID)
		if err != nil {
			return err
		}

		var earned []models.UserBadge
		if err := tx.Preload("Badge").
			Where("user_id = ?", userID).
			Order("earned_at").
			Find(&earned).Error; err != nil {
			return err
		}

		badges := make([]EarnedBadge, 0, len(earned))
		for _, ub := range earned {
			badges = append(badges, EarnedBadge{Badge: ub.Badge, EarnedAt: ub.EarnedAt})
		}

		state = &RewardState{
			TotalPoints:   ledger.TotalPoints,
			CurrentStreak: ledger.CurrentStreak,
			LongestStreak: ledger.LongestStreak,
			Badges:        badges,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

// CreateLedger создаёт нулевой леджер. Вызывается при регистрации в одной
// транзакции с пользователем.
func (s *RewardService) CreateLedger(tx *gorm.DB, userID uint) error {
	_, err := loadOrCreateLedger(tx, userID)
	return err
}

// evaluateBadges сверяет каталог с новым состоянием леджера и выдаёт ещё не
// заработанные бейджи. Повторная выдача — no-op, не ошибка.
func (s *RewardService) evaluateBadges(tx *gorm.DB, ledger *models.RewardLedger) (int, error) {
	var catalog []models.Badge
	if err := tx.Find(&catalog).Error; err != nil {
		return 0, err
	}

	var earned []models.UserBadge
	if err := tx.Where("user_id = ?", ledger.UserID).Find(&earned).Error; err != nil {
		return 0, err
	}

	held := make(map[uint]bool, len(earned))
	for _, ub := range earned {
		held[ub.BadgeID] = true
	}

	awarded := 0
	for _, badge := range catalog {
		if held[badge.ID] || !badgeUnlocked(badge, ledger) {
			continue
		}

		ub := models.UserBadge{UserID: ledger.UserID, BadgeID: badge.ID}
		if err := tx.Create(&ub).Error; err != nil {
			return awarded, err
		}

		awarded++
		utils.BadgesAwarded.WithLabelValues(badge.Tier).Inc()
		s.log.Info("badge_awarded",
			zap.Uint("user_id", ledger.UserID),
			zap.String("badge", badge.Name),
			zap.String("tier", badge.Tier),
		)
	}

	return awarded, nil
}

func badgeUnlocked(badge models.Badge, ledger *models.RewardLedger) bool {
	switch badge.CriteriaType {
	case models.CriteriaPoints:
		return ledger.TotalPoints >= badge.CriteriaValue
	case models.CriteriaStreak:
		return ledger.CurrentStreak >= badge.CriteriaValue
	default:
		return false
	}
}

// loadOrCreateLedger — ленивый нулевой леджер. Гонка двух первых чтений
// гасится через ON CONFLICT DO NOTHING: проигравший получает тот же нулевой
// леджер вместо конфликта первичного ключа.
func loadOrCreateLedger(tx *gorm.DB, userID uint) (*models.RewardLedger, error) {
	ledger := models.RewardLedger{UserID: userID}
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Where("user_id = ?", userID).
		FirstOrCreate(&ledger).Error
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// calendarDaysBetween считает разницу в календарных днях (UTC), не в часах:
// выполнение вчера вечером и сегодня утром — это один день разницы.
func calendarDaysBetween(from, to time.Time) int {
	fromDay := from.UTC().Truncate(24 * time.Hour)
	toDay := to.UTC().Truncate(24 * time.Hour)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// invalidateCached сбрасывает кэшированные GET-ответы пользователя (в том
// числе /api/rewards). Вызывается после коммита транзакции начисления.
func (s *RewardService) invalidateCached(userID uint) {
	if err := cache.InvalidateUser(userID); err != nil && !errors.Is(err, cache.ErrDisabled) {
		s.log.Warn("cache_invalidate_failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}
