package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NewPyDev/Momentum/services"
	"github.com/NewPyDev/Momentum/utils"
)

var (
	goals   *services.GoalService
	rewards *services.RewardService
	subs    *services.SubscriptionService
	summary *services.SummaryService
)

// Setup подключает сервисы к хендлерам. Вызывается один раз из main.
func Setup(g *services.GoalService, r *services.RewardService, s *services.SubscriptionService, sum *services.SummaryService) {
	goals = g
	rewards = r
	subs = s
	summary = sum
}

// respondServiceError переводит ошибки сервисов в HTTP статусы
func respondServiceError(c *gin.Context, handler string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Free users can only create 5 goals. Upgrade to Premium for unlimited goals.",
		})
	case errors.Is(err, services.ErrNoSubscription):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User does not have an active subscription"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	default:
		utils.ErrorCount.WithLabelValues(handler, "internal").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
