package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NewPyDev/Momentum/middleware"
	"github.com/NewPyDev/Momentum/models"
	"github.com/NewPyDev/Momentum/services"
)

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

func GetGoals(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := goals.ListGoals(user.ID)
	if err != nil {
		respondServiceError(c, "get_goals", err)
		return
	}

	c.JSON(http.StatusOK, goalListResponse(list))
}

func GetGoal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	goal, err := goals.GetGoal(user.ID, goalID)
	if err != nil {
		respondServiceError(c, "get_goal", err)
		return
	}

	c.JSON(http.StatusOK, goalResponse(goal))
}

func CreateGoal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input services.GoalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные"})
		return
	}
	if input.TotalSteps == 0 {
		input.TotalSteps = 1
	}
	if err := middleware.ValidateStruct(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := goals.CreateGoal(user.ID, input)
	if err != nil {
		respondServiceError(c, "create_goal", err)
		return
	}

	c.JSON(http.StatusCreated, goalResponse(goal))
}

func UpdateGoal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.GoalUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные"})
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := goals.UpdateGoal(user.ID, goalID, input)
	if err != nil {
		respondServiceError(c, "update_goal", err)
		return
	}

	c.JSON(http.StatusOK, goalResponse(goal))
}

func DeleteGoal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := goals.DeleteGoal(user.ID, goalID); err != nil {
		respondServiceError(c, "delete_goal", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
}

func GetSummary(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := summary.CalculateUserGoalSummary(user.ID)
	if err != nil {
		respondServiceError(c, "get_summary", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// goalResponse добавляет вычисляемый progress: он никогда не хранится
func goalResponse(g *models.Goal) gin.H {
	return gin.H{
		"id":              g.ID,
		"user_id":         g.UserID,
		"title":           g.Title,
		"description":     g.Description,
		"emoji":           g.Emoji,
		"image_url":       g.ImageURL,
		"total_steps":     g.TotalSteps,
		"completed_steps": g.CompletedSteps,
		"progress":        g.Progress(),
		"steps":           g.Steps,
		"created_at":      g.CreatedAt,
		"updated_at":      g.UpdatedAt,
	}
}

func goalListResponse(list []models.Goal) []gin.H {
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, goalResponse(&list[i]))
	}
	return out
}
