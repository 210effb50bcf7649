package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/planner"
)

// TestParsePagination проверяет лимит, смещение и ограничение максимума.
func TestParsePagination(t *testing.T) {
	c, _ := newRequestContext(newTestEcho(), http.MethodGet, "/?limit=500&offset=20", "")
	limit, offset, err := parsePagination(c, 12, 100)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if limit != 100 || offset != 20 {
		t.Fatalf("unexpected pagination: limit=%d offset=%d", limit, offset)
	}

	c, _ = newRequestContext(newTestEcho(), http.MethodGet, "/", "")
	if limit, offset, _ = parsePagination(c, 12, 100); limit != 12 || offset != 0 {
		t.Fatalf("unexpected defaults: limit=%d offset=%d", limit, offset)
	}

	c, _ = newRequestContext(newTestEcho(), http.MethodGet, "/?offset=-1", "")
	if _, _, err := parsePagination(c, 12, 100); err == nil {
		t.Fatal("expected error for negative offset")
	}
}

// TestParseID проверяет разбор числового идентификатора.
func TestParseID(t *testing.T) {
	c, _ := newRequestContext(newTestEcho(), http.MethodGet, "/", "")
	withParam(c, "id", "42")
	if id, err := parseID(c, "id"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}

	for _, raw := range []string{"0", "-3", "abc", ""} {
		c, _ := newRequestContext(newTestEcho(), http.MethodGet, "/", "")
		withParam(c, "id", raw)
		if _, err := parseID(c, "id"); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

// TestParseFlag проверяет разбор флага из query.
func TestParseFlag(t *testing.T) {
	for _, raw := range []string{"1", "true", "YES", " on "} {
		if !parseFlag(raw) {
			t.Fatalf("expected %q to be true", raw)
		}
	}
	for _, raw := range []string{"", "0", "false", "maybe"} {
		if parseFlag(raw) {
			t.Fatalf("expected %q to be false", raw)
		}
	}
}

// TestAdminMiddleware проверяет доступ по флагу и по списку email.
func TestAdminMiddleware(t *testing.T) {
	mw := AdminMiddleware([]string{" Chef@Example.com ", ""})
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	cases := []struct {
		user *models.User
		want int
	}{
		{user: nil, want: http.StatusUnauthorized},
		{user: &models.User{ID: 1, Email: "cook@example.com"}, want: http.StatusForbidden},
		{user: &models.User{ID: 2, Email: "chef@example.com"}, want: http.StatusOK},
		{user: &models.User{ID: 3, Email: "owner@example.com", IsAdmin: true}, want: http.StatusOK},
	}

	for _, tc := range cases {
		c, rec := newRequestContext(newTestEcho(), http.MethodGet, "/", "")
		if tc.user != nil {
			withUser(c, *tc.user)
		}
		if err := mw(next)(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != tc.want {
			t.Fatalf("expected %d, got %d", tc.want, rec.Code)
		}
	}
}

// TestWriteShoppingCSV проверяет экранирование и порядок колонок.
func TestWriteShoppingCSV(t *testing.T) {
	view := planner.ShoppingListView{
		List: models.ShoppingList{ID: 7, ListName: "Week of Jan 06 - Jan 12"},
		Categories: []planner.CategoryGroup{{
			CategoryName: "Spices, Herbs",
			Items: []models.ShoppingListItemDetail{{
				ShoppingListItem: models.ShoppingListItem{TotalQuantity: decimal.RequireFromString("1.50"), IsChecked: true},
				IngredientName:   "Basil",
				UnitName:         "bunch",
			}},
		}},
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writeShoppingCSV(writer, view); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	writer.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != `7,Week of Jan 06 - Jan 12,"Spices, Herbs",Basil,1.5,bunch,true` {
		t.Fatalf("unexpected record: %s", lines[1])
	}
}

// TestPrependRecipe проверяет, что выбранный рецепт идет первым без дубликата.
func TestPrependRecipe(t *testing.T) {
	latest := []models.Recipe{{ID: 3}, {ID: 2}, {ID: 1}}
	out := prependRecipe(models.Recipe{ID: 2}, latest)

	if len(out) != 3 || out[0].ID != 2 || out[1].ID != 3 || out[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", out)
	}
}
