package models

import "time"

const (
	TierFree    = "free"
	TierPremium = "premium"
)

const (
	BadgeTierBronze = "bronze"
	BadgeTierSilver = "silver"
	BadgeTierGold   = "gold"
)

// Критерии разблокировки бейджей
const (
	CriteriaPoints = "points"
	CriteriaStreak = "streak"
)

type User struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Username       string        `gorm:"unique" json:"username"`
	Email          string        `gorm:"unique" json:"email"`
	PasswordHash   string        `json:"-"`
	IsPremium      bool          `gorm:"default:false" json:"is_premium"`
	SubscriptionID *string       `json:"subscription_id,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Goals          []Goal        `gorm:"foreignKey:UserID" json:"-"`
	Ledger         *RewardLedger `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) Tier() string {
	if u.IsPremium {
		return TierPremium
	}
	return TierFree
}

type Goal struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index" json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Emoji          string    `json:"emoji"`
	ImageURL       string    `json:"image_url"`
	TotalSteps     int       `gorm:"default:1" json:"total_steps"`
	CompletedSteps int       `gorm:"default:0" json:"completed_steps"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Steps          []Step    `gorm:"foreignKey:GoalID" json:"steps,omitempty"`
}

// Progress считается всегда из completed_steps и total_steps, никогда не
// хранится отдельно. Значение НЕ ограничено сверху: если выполненных шагов
// больше заявленных, прогресс может быть больше 100.
func (g *Goal) Progress() int {
	if g.TotalSteps <= 0 {
		return 0
	}
	return g.CompletedSteps * 100 / g.TotalSteps
}

type Step struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GoalID      uint      `gorm:"index" json:"goal_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `gorm:"default:false" json:"is_completed"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RewardLedger — одна запись на пользователя.
type RewardLedger struct {
	UserID           uint       `gorm:"primaryKey" json:"user_id"`
	TotalPoints      int        `gorm:"default:0" json:"total_points"`
	CurrentStreak    int        `gorm:"default:0" json:"current_streak"`
	LongestStreak    int        `gorm:"default:0" json:"longest_streak"`
	LastCompletionAt *time.Time `json:"last_completion_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Badge — статичный каталог, сеется при старте и ядром не изменяется.
type Badge struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"unique" json:"name"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	Tier          string `json:"tier"`
	CriteriaType  string `json:"criteria_type"`
	CriteriaValue int    `json:"criteria_value"`
}

type UserBadge struct {
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	BadgeID  uint      `gorm:"primaryKey" json:"badge_id"`
	EarnedAt time.Time `gorm:"autoCreateTime" json:"earned_at"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
}
