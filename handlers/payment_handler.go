package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NewPyDev/Momentum/middleware"
	"github.com/NewPyDev/Momentum/services"
	"github.com/NewPyDev/Momentum/utils"
)

// Subscribe выдаёт ссылку на checkout провайдера
func Subscribe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	url, err := subs.CheckoutURL(&user)
	if err != nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Paddle payment integration not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}

func CancelSubscription(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := subs.Cancel(user.ID); err != nil {
		respondServiceError(c, "cancel_subscription", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled successfully"})
}

// PaymentWebhook принимает события провайдера. Несопоставимые события
// подтверждаются с 200: любой другой статус заставит провайдера пересылать
// их бесконечно.
func PaymentWebhook(c *gin.Context) {
	var event services.PaymentEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		utils.Logger.Warn("webhook_bad_payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := subs.ApplyEvent(event); err != nil {
		// Сбой хранилища — единственный случай, когда провайдеру есть
		// смысл повторить доставку
		utils.Logger.Error("webhook_apply_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
