package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

type SavedRecipeHandler struct {
	Saved *repository.SavedRecipeRepository
}

// NewSavedRecipeHandler создает обработчик сохраненных рецептов.
func NewSavedRecipeHandler(saved *repository.SavedRecipeRepository) *SavedRecipeHandler {
	return &SavedRecipeHandler{Saved: saved}
}

type SaveRecipeRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

type SavedRecipeResponse struct {
	Saved models.SavedRecipe `json:"saved"`
}

// List возвращает сохраненные рецепты пользователя.
func (h *SavedRecipeHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	saved, err := h.Saved.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string][]models.SavedRecipe{"saved_recipes": saved})
}

// Save добавляет рецепт в сохраненные. Повторный вызов не создает дубликат.
func (h *SavedRecipeHandler) Save(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	recipeID, err := parseID(c, "recipeId")
	if err != nil {
		return badRequest(c, "invalid recipe id")
	}

	var req SaveRecipeRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return badRequest(c, "validation failed")
		}
	}

	var notes *string
	if req.Notes != nil {
		if trimmed := strings.TrimSpace(*req.Notes); trimmed != "" {
			notes = &trimmed
		}
	}

	saved, err := h.Saved.Save(c.Request().Context(), userID, recipeID, notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "recipe not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, SavedRecipeResponse{Saved: saved})
}

func (h *SavedRecipeHandler) Remove(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	recipeID, err := parseID(c, "recipeId")
	if err != nil {
		return badRequest(c, "invalid recipe id")
	}

	if err := h.Saved.Remove(c.Request().Context(), userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "saved recipe not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// Status сообщает, сохранен ли рецепт пользователем.
func (h *SavedRecipeHandler) Status(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	recipeID, err := parseID(c, "recipeId")
	if err != nil {
		return badRequest(c, "invalid recipe id")
	}

	saved, err := h.Saved.IsSaved(c.Request().Context(), userID, recipeID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]bool{"is_saved": saved})
}
