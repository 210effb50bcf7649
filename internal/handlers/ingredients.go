package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

type IngredientHandler struct {
	Ingredients *repository.IngredientRepository
}

// NewIngredientHandler создает обработчик ингредиентов.
func NewIngredientHandler(ingredients *repository.IngredientRepository) *IngredientHandler {
	return &IngredientHandler{Ingredients: ingredients}
}

type IngredientRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
}

type IngredientResponse struct {
	Ingredient models.Ingredient `json:"ingredient"`
}

// IngredientOption - краткая запись для выпадающих списков.
type IngredientOption struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// List возвращает ингредиенты с фильтром по категории и поиском.
func (h *IngredientHandler) List(c echo.Context) error {
	filter, err := ingredientFilter(c)
	if err != nil {
		return badRequest(c, "invalid category")
	}

	ingredients, err := h.Ingredients.List(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string][]models.Ingredient{"ingredients": ingredients})
}

// Options возвращает все ингредиенты в виде id, имени и категории.
func (h *IngredientHandler) Options(c echo.Context) error {
	ingredients, err := h.Ingredients.List(c.Request().Context(), repository.IngredientFilter{})
	if err != nil {
		return serverError(c)
	}

	options := make([]IngredientOption, 0, len(ingredients))
	for _, ingredient := range ingredients {
		options = append(options, IngredientOption{
			ID:       ingredient.ID,
			Name:     ingredient.Name,
			Category: ingredient.CategoryName,
		})
	}

	return c.JSON(http.StatusOK, map[string][]IngredientOption{"ingredients": options})
}

func (h *IngredientHandler) Get(c echo.Context) error {
	ingredientID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid ingredient id")
	}

	ingredient, err := h.Ingredients.GetByID(c.Request().Context(), ingredientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "ingredient not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, IngredientResponse{Ingredient: ingredient})
}

func (h *IngredientHandler) Create(c echo.Context) error {
	if _, ok := auth.UserIDFromContext(c); !ok {
		return unauthorized(c)
	}

	var req IngredientRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	ingredient, err := h.Ingredients.Create(c.Request().Context(), strings.TrimSpace(req.Name), req.CategoryID)
	if err != nil {
		return ingredientError(c, err)
	}

	return c.JSON(http.StatusCreated, IngredientResponse{Ingredient: ingredient})
}

// Update меняет имя и категорию ингредиента.
func (h *IngredientHandler) Update(c echo.Context) error {
	if _, ok := auth.UserIDFromContext(c); !ok {
		return unauthorized(c)
	}

	ingredientID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid ingredient id")
	}

	var req IngredientRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	ingredient, err := h.Ingredients.Update(c.Request().Context(), ingredientID, strings.TrimSpace(req.Name), req.CategoryID)
	if err != nil {
		return ingredientError(c, err)
	}

	return c.JSON(http.StatusOK, IngredientResponse{Ingredient: ingredient})
}

func ingredientFilter(c echo.Context) (repository.IngredientFilter, error) {
	filter := repository.IngredientFilter{Search: c.QueryParam("search")}

	if raw := strings.TrimSpace(c.QueryParam("category")); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			return filter, errors.New("invalid category")
		}
		filter.CategoryID = &categoryID
	}

	return filter, nil
}

func ingredientError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "ingredient not found")
	case errors.Is(err, repository.ErrInvalid):
		return badRequest(c, "unknown category")
	case errors.Is(err, repository.ErrConflict):
		return conflict(c, "ingredient already exists")
	default:
		return serverError(c)
	}
}
