package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/notifications"
	"example.com/recipes-vault/backend/internal/planner"
	"example.com/recipes-vault/backend/internal/repository"
)

type ShoppingHandler struct {
	Planner *planner.Service
	Hub     *notifications.Hub
}

// NewShoppingHandler создает обработчик списков покупок.
func NewShoppingHandler(service *planner.Service, hub *notifications.Hub) *ShoppingHandler {
	return &ShoppingHandler{Planner: service, Hub: hub}
}

type GenerateShoppingListRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

type CompleteShoppingListRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type ShoppingListResponse struct {
	List models.ShoppingList `json:"list"`
}

type ShoppingItemResponse struct {
	Item models.ShoppingListItem `json:"item"`
}

// Generate собирает новый список покупок по плану питания за диапазон дат.
func (h *ShoppingHandler) Generate(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req GenerateShoppingListRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return badRequest(c, "invalid start_date")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return badRequest(c, "invalid end_date")
	}

	list, err := h.Planner.GenerateShoppingList(c.Request().Context(), userID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrInvalidRange):
			return badRequest(c, "start_date must not be after end_date")
		case errors.Is(err, planner.ErrNothingPlanned):
			return notFound(c, "no meals planned for this period")
		case errors.Is(err, repository.ErrInvalid):
			return badRequest(c, "shopping list quantities exceed the supported range")
		default:
			return serverError(c)
		}
	}

	publish(h.Hub, userID, notifications.EventShoppingListCreated, map[string]interface{}{
		"list_id":   list.ID,
		"list_name": list.ListName,
	})

	return c.JSON(http.StatusCreated, ShoppingListResponse{List: list})
}

// List возвращает списки покупок пользователя.
func (h *ShoppingHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	lists, err := h.Planner.ListShoppingLists(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string][]models.ShoppingListSummary{"lists": lists})
}

// Get возвращает список с позициями, сгруппированными по категориям.
func (h *ShoppingHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	listID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid list id")
	}

	view, err := h.Planner.ViewShoppingList(c.Request().Context(), userID, listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "shopping list not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, view)
}

// Delete удаляет список покупок вместе с позициями.
func (h *ShoppingHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	listID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid list id")
	}

	if err := h.Planner.DeleteShoppingList(c.Request().Context(), userID, listID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "shopping list not found")
		}
		return serverError(c)
	}

	publish(h.Hub, userID, notifications.EventShoppingListDeleted, map[string]interface{}{"list_id": listID})

	return c.NoContent(http.StatusNoContent)
}

// SetCompleted отмечает список завершенным или снимает отметку.
func (h *ShoppingHandler) SetCompleted(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	listID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid list id")
	}

	var req CompleteShoppingListRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	list, err := h.Planner.SetListCompleted(c.Request().Context(), userID, listID, *req.Completed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "shopping list not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, ShoppingListResponse{List: list})
}

// ToggleItem инвертирует отметку позиции списка.
func (h *ShoppingHandler) ToggleItem(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	itemID, err := parseID(c, "itemId")
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	item, err := h.Planner.ToggleItemChecked(c.Request().Context(), userID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "shopping list item not found")
		}
		return serverError(c)
	}

	publish(h.Hub, userID, notifications.EventShoppingItemToggled, map[string]interface{}{
		"list_id":    item.ShoppingListID,
		"item_id":    item.ID,
		"is_checked": item.IsChecked,
	})

	return c.JSON(http.StatusOK, ShoppingItemResponse{Item: item})
}

func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(planner.DateLayout, strings.TrimSpace(value))
}
