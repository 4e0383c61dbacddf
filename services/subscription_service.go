package services

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NewPyDev/Momentum/config"
	"github.com/NewPyDev/Momentum/models"
)

// Виды событий платёжного провайдера (классический формат Paddle).
const (
	EventSubscriptionCreated   = "subscription_created"
	EventSubscriptionCancelled = "subscription_cancelled"
)

// PaymentEvent — входящее webhook-событие. passthrough несёт ID пользователя,
// проставленный в checkout ссылку.
type PaymentEvent struct {
	AlertName      string `json:"alert_name"`
	Passthrough    string `json:"passthrough"`
	SubscriptionID string `json:"subscription_id"`
}

// SubscriptionService — машина состояний free/premium. Тариф пользователя
// меняется только здесь.
type SubscriptionService struct {
	db  *gorm.DB
	log *zap.Logger
	cfg config.Config
}

func NewSubscriptionService(db *gorm.DB, log *zap.Logger, cfg config.Config) *SubscriptionService {
	return &SubscriptionService{db: db, log: log, cfg: cfg}
}

// CheckoutURL выдаёт ссылку на оплату. Сервер сам к провайдеру не ходит.
func (s *SubscriptionService) CheckoutURL(user *models.User) (string, error) {
	if s.cfg.PaddleVendorID == "" {
		return "", errors.New("paddle is not configured")
	}

	return fmt.Sprintf(
		"https://checkout.paddle.com/subscription?vendor=%s&product=premium_plan&passthrough=%d",
		s.cfg.PaddleVendorID, user.ID,
	), nil
}

// Cancel — отмена подписки самим пользователем: premium → free.
func (s *SubscriptionService) Cancel(userID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !user.IsPremium {
			return ErrNoSubscription
		}

		user.IsPremium = false
		user.SubscriptionID = nil
		return tx.Save(&user).Error
	})
	if err != nil {
		return err
	}

	s.log.Info("subscription_cancelled_by_user", zap.Uint("user_id", userID))
	return nil
}

// ApplyEvent применяет внешнее событие. События, которые не удаётся
// сопоставить с пользователем или подпиской, молча подтверждаются: провайдер
// не должен получать ошибку и пересылать их бесконечно. Ошибка возвращается
// только при сбое хранилища.
func (s *SubscriptionService) ApplyEvent(ev PaymentEvent) error {
	switch ev.AlertName {
	case EventSubscriptionCreated:
		return s.applyCreated(ev)
	case EventSubscriptionCancelled:
		return s.applyCancelled(ev)
	default:
		s.log.Info("payment_event_ignored", zap.String("alert_name", ev.AlertName))
		return nil
	}
}

func (s *SubscriptionService) applyCreated(ev PaymentEvent) error {
	userID, err := strconv.ParseUint(ev.Passthrough, 10, 64)
	if err != nil {
		s.log.Warn("payment_event_bad_passthrough", zap.String("passthrough", ev.Passthrough))
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, uint(userID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.log.Warn("payment_event_unknown_user", zap.Uint64("user_id", userID))
				return nil
			}
			return err
		}

		// Повторное subscription_created для premium — идемпотентный no-op
		if user.IsPremium {
			return nil
		}

		user.IsPremium = true
		user.SubscriptionID = &ev.SubscriptionID
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		s.log.Info("subscription_activated",
			zap.Uint("user_id", user.ID),
			zap.String("subscription_id", ev.SubscriptionID),
		)
		return nil
	})
}

func (s *SubscriptionService) applyCancelled(ev PaymentEvent) error {
	if ev.SubscriptionID == "" {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("subscription_id = ?", ev.SubscriptionID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("payment_event_unknown_subscription",
				zap.String("subscription_id", ev.SubscriptionID))
			return nil
		}
		if err != nil {
			return err
		}

		user.IsPremium = false
		user.SubscriptionID = nil
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		s.log.Info("subscription_deactivated", zap.Uint("user_id", user.ID))
		return nil
	})
}
