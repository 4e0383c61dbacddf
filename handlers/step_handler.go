package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NewPyDev/Momentum/middleware"
	"github.com/NewPyDev/Momentum/services"
)

func CreateStep(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.StepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные"})
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	step, err := goals.CreateStep(user.ID, goalID, input)
	if err != nil {
		respondServiceError(c, "create_step", err)
		return
	}

	c.JSON(http.StatusCreated, step)
}

func UpdateStep(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}
	stepID, ok := parseID(c, "stepId")
	if !ok {
		return
	}

	var input services.StepUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные"})
		return
	}

	step, err := goals.UpdateStep(user.ID, goalID, stepID, input)
	if err != nil {
		respondServiceError(c, "update_step", err)
		return
	}

	c.JSON(http.StatusOK, step)
}

func ToggleStep(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}
	stepID, ok := parseID(c, "stepId")
	if !ok {
		return
	}

	step, err := goals.ToggleStep(user.ID, goalID, stepID)
	if err != nil {
		respondServiceError(c, "toggle_step", err)
		return
	}

	c.JSON(http.StatusOK, step)
}

func DeleteStep(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}
	stepID, ok := parseID(c, "stepId")
	if !ok {
		return
	}

	if err := goals.DeleteStep(user.ID, goalID, stepID); err != nil {
		respondServiceError(c, "delete_step", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Step deleted"})
}
