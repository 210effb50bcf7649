package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

const (
	defaultRecipeLimit = 12
	maxRecipeLimit     = 100
)

type RecipeHandler struct {
	Recipes *repository.RecipeRepository
}

// NewRecipeHandler создает обработчик каталога рецептов.
func NewRecipeHandler(recipes *repository.RecipeRepository) *RecipeHandler {
	return &RecipeHandler{Recipes: recipes}
}

type RecipeIngredientRequest struct {
	IngredientID int64           `json:"ingredient_id"`
	UnitID       int64           `json:"unit_id" validate:"required_with=IngredientID"`
	Quantity     decimal.Decimal `json:"quantity"`
	Notes        *string         `json:"notes" validate:"omitempty,max=200"`
}

type CreateRecipeRequest struct {
	Name            string                    `json:"name" validate:"required,max=200"`
	Description     *string                   `json:"description"`
	PrepTime        int                       `json:"prep_time" validate:"gte=0"`
	CookTime        int                       `json:"cook_time" validate:"gte=0"`
	Servings        int                       `json:"servings" validate:"gt=0"`
	DifficultyLevel *string                   `json:"difficulty_level" validate:"omitempty,max=20"`
	CuisineID       int64                     `json:"cuisine_id" validate:"required,gt=0"`
	Ingredients     []RecipeIngredientRequest `json:"ingredients" validate:"dive"`
	Instructions    []string                  `json:"instructions"`
	TagIDs          []int64                   `json:"tag_ids" validate:"dive,gt=0"`
}

type RecipeListResponse struct {
	Recipes []models.Recipe `json:"recipes"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type RecipeResponse struct {
	Recipe models.Recipe `json:"recipe"`
}

// List возвращает страницу рецептов с поиском, фильтром по кухне и сортировкой.
func (h *RecipeHandler) List(c echo.Context) error {
	limit, offset, err := parsePagination(c, defaultRecipeLimit, maxRecipeLimit)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := repository.RecipeFilter{
		Search: c.QueryParam("search"),
		Sort:   strings.ToLower(strings.TrimSpace(c.QueryParam("sort"))),
		Limit:  limit,
		Offset: offset,
	}

	if raw := strings.TrimSpace(c.QueryParam("cuisine")); raw != "" {
		cuisineID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || cuisineID <= 0 {
			return badRequest(c, "invalid cuisine")
		}
		filter.CuisineID = &cuisineID
	}

	recipes, total, err := h.Recipes.List(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, RecipeListResponse{
		Recipes: recipes,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// Get возвращает рецепт с ингредиентами, шагами и тегами.
func (h *RecipeHandler) Get(c echo.Context) error {
	recipeID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid recipe id")
	}

	detail, err := h.Recipes.GetDetail(c.Request().Context(), recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "recipe not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, detail)
}

// Create сохраняет новый рецепт.
func (h *RecipeHandler) Create(c echo.Context) error {
	if _, ok := auth.UserIDFromContext(c); !ok {
		return unauthorized(c)
	}

	var req CreateRecipeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	input := repository.RecipeInput{
		Name:            req.Name,
		Description:     req.Description,
		PrepTime:        req.PrepTime,
		CookTime:        req.CookTime,
		Servings:        req.Servings,
		DifficultyLevel: req.DifficultyLevel,
		CuisineID:       req.CuisineID,
		Instructions:    req.Instructions,
		TagIDs:          req.TagIDs,
	}

	for _, line := range req.Ingredients {
		if line.Quantity.IsNegative() {
			return badRequest(c, "quantity must not be negative")
		}
		input.Ingredients = append(input.Ingredients, repository.RecipeIngredientInput{
			IngredientID: line.IngredientID,
			UnitID:       line.UnitID,
			Quantity:     line.Quantity,
			Notes:        line.Notes,
		})
	}

	recipe, err := h.Recipes.Create(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "unknown cuisine, ingredient, unit or tag")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, RecipeResponse{Recipe: recipe})
}

// Delete удаляет рецепт. Доступно только администраторам.
func (h *RecipeHandler) Delete(c echo.Context) error {
	recipeID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid recipe id")
	}

	if err := h.Recipes.Delete(c.Request().Context(), recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "recipe not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
