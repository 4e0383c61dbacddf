package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NewPyDev/Momentum/middleware"
)

func GetRewards(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	state, err := rewards.GetRewardState(user.ID)
	if err != nil {
		respondServiceError(c, "get_rewards", err)
		return
	}

	c.JSON(http.StatusOK, state)
}
