package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/planner"
	"example.com/recipes-vault/backend/internal/repository"
)

// ExportJSON выгружает список покупок в JSON-файл.
func (h *ShoppingHandler) ExportJSON(c echo.Context) error {
	view, ok, err := h.loadView(c)
	if !ok {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+exportFilename(view, "json")+"\"")
	return c.JSON(http.StatusOK, view)
}

// ExportCSV выгружает список покупок в CSV-файл.
func (h *ShoppingHandler) ExportCSV(c echo.Context) error {
	view, ok, err := h.loadView(c)
	if !ok {
		return err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writeShoppingCSV(writer, view); err != nil {
		return serverError(c)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return serverError(c)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+exportFilename(view, "csv")+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// loadView возвращает ok=false, если ответ с ошибкой уже записан.
func (h *ShoppingHandler) loadView(c echo.Context) (planner.ShoppingListView, bool, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return planner.ShoppingListView{}, false, unauthorized(c)
	}

	listID, err := parseID(c, "id")
	if err != nil {
		return planner.ShoppingListView{}, false, badRequest(c, "invalid list id")
	}

	view, err := h.Planner.ViewShoppingList(c.Request().Context(), userID, listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return planner.ShoppingListView{}, false, notFound(c, "shopping list not found")
		}
		return planner.ShoppingListView{}, false, serverError(c)
	}

	return view, true, nil
}

func writeShoppingCSV(writer *csv.Writer, view planner.ShoppingListView) error {
	header := []string{
		"list_id",
		"list_name",
		"category",
		"ingredient",
		"quantity",
		"unit",
		"is_checked",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	listID := strconv.FormatInt(view.List.ID, 10)
	for _, group := range view.Categories {
		for _, item := range group.Items {
			record := []string{
				listID,
				view.List.ListName,
				group.CategoryName,
				item.IngredientName,
				item.TotalQuantity.String(),
				item.UnitName,
				strconv.FormatBool(item.IsChecked),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	return nil
}

func exportFilename(view planner.ShoppingListView, ext string) string {
	return "shopping-list-" + strconv.FormatInt(view.List.ID, 10) + "-" + view.List.StartDate.Format(planner.DateLayout) + "." + ext
}
