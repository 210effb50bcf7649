package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

type LookupHandler struct {
	Lookups *repository.LookupRepository
}

// NewLookupHandler создает обработчик справочников.
func NewLookupHandler(lookups *repository.LookupRepository) *LookupHandler {
	return &LookupHandler{Lookups: lookups}
}

func (h *LookupHandler) Categories(c echo.Context) error {
	categories, err := h.Lookups.Categories(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, map[string][]models.Category{"categories": categories})
}

func (h *LookupHandler) Units(c echo.Context) error {
	units, err := h.Lookups.Units(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, map[string][]models.Unit{"units": units})
}

func (h *LookupHandler) Cuisines(c echo.Context) error {
	cuisines, err := h.Lookups.Cuisines(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, map[string][]models.Cuisine{"cuisines": cuisines})
}

func (h *LookupHandler) Tags(c echo.Context) error {
	tags, err := h.Lookups.Tags(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, map[string][]models.Tag{"tags": tags})
}
