package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/notifications"
	"example.com/recipes-vault/backend/internal/planner"
	"example.com/recipes-vault/backend/internal/repository"
)

type MealPlanHandler struct {
	Planner *planner.Service
	Hub     *notifications.Hub
}

// NewMealPlanHandler создает обработчик плана питания.
func NewMealPlanHandler(service *planner.Service, hub *notifications.Hub) *MealPlanHandler {
	return &MealPlanHandler{Planner: service, Hub: hub}
}

type AddMealRequest struct {
	RecipeID    int64  `json:"recipe_id" validate:"required,gt=0"`
	PlannedDate string `json:"planned_date" validate:"required"`
}

type MealResponse struct {
	Meal models.PlannedMeal `json:"meal"`
}

// Week возвращает план на неделю. Без параметра start берется текущая неделя.
func (h *MealPlanHandler) Week(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var start time.Time
	if raw := c.QueryParam("start"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "invalid start")
		}
		start = parsed
	}

	plan, err := h.Planner.WeeklyPlan(c.Request().Context(), userID, start)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, plan)
}

// Add планирует рецепт на дату.
func (h *MealPlanHandler) Add(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddMealRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	date, err := parseDate(req.PlannedDate)
	if err != nil {
		return badRequest(c, "invalid planned_date")
	}

	meal, err := h.Planner.AddMeal(c.Request().Context(), userID, req.RecipeID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "recipe not found")
		}
		return serverError(c)
	}

	publish(h.Hub, userID, notifications.EventMealPlanChanged, map[string]interface{}{
		"meal_id":      meal.ID,
		"planned_date": meal.PlannedDate.Format(planner.DateLayout),
	})

	return c.JSON(http.StatusCreated, MealResponse{Meal: meal})
}

// Remove удаляет прием пищи из плана. Созданные ранее списки покупок не меняются.
func (h *MealPlanHandler) Remove(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	mealID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid meal id")
	}

	if err := h.Planner.RemoveMeal(c.Request().Context(), userID, mealID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "meal not found")
		}
		return serverError(c)
	}

	publish(h.Hub, userID, notifications.EventMealPlanChanged, map[string]interface{}{"meal_id": mealID})

	return c.NoContent(http.StatusNoContent)
}
