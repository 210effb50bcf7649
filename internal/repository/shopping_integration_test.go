//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/recipes-vault/backend/internal/database"
	"example.com/recipes-vault/backend/internal/models"
)

// openTestPool подключается к TEST_DATABASE_URL (postgres://...) и применяет миграции.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	migrationURL := "pgx5://" + strings.TrimPrefix(strings.TrimPrefix(dsn, "postgresql://"), "postgres://")
	if err := database.Migrate(migrationURL, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

type shoppingSeed struct {
	owner, stranger int64
	ingredient      int64
	unit, category  int64
}

func seedShopping(t *testing.T, pool *pgxpool.Pool) shoppingSeed {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().Format("150405.000000000")

	var seed shoppingSeed
	users := map[string]*int64{"owner": &seed.owner, "stranger": &seed.stranger}
	for role, target := range users {
		err := pool.QueryRow(ctx,
			`INSERT INTO users (google_id, email) VALUES ($1, $2) RETURNING id`,
			"it-"+role+"-"+suffix, role+"-"+suffix+"@example.com",
		).Scan(target)
		if err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}

	if err := pool.QueryRow(ctx, `SELECT id FROM categories ORDER BY id LIMIT 1`).Scan(&seed.category); err != nil {
		t.Fatalf("load category: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT id FROM units ORDER BY id LIMIT 1`).Scan(&seed.unit); err != nil {
		t.Fatalf("load unit: %v", err)
	}
	err := pool.QueryRow(ctx,
		`INSERT INTO ingredients (name, category_id) VALUES ($1, $2) RETURNING id`,
		"Integration flour "+suffix, seed.category,
	).Scan(&seed.ingredient)
	if err != nil {
		t.Fatalf("insert ingredient: %v", err)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = ANY($1)`, []int64{seed.owner, seed.stranger})
		_, _ = pool.Exec(context.Background(), `DELETE FROM ingredients WHERE id = $1`, seed.ingredient)
	})

	return seed
}

func testList(userID int64) models.ShoppingList {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	return models.ShoppingList{
		UserID:    userID,
		ListName:  "Integration list",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 6),
	}
}

func countLists(t *testing.T, pool *pgxpool.Pool, userID int64) int {
	t.Helper()

	var count int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM shopping_lists WHERE user_id = $1`, userID).Scan(&count); err != nil {
		t.Fatalf("count lists: %v", err)
	}
	return count
}

// TestCreateWithItemsRollsBackOnFailedItem проверяет, что сбой позиции не оставляет частичного списка.
func TestCreateWithItemsRollsBackOnFailedItem(t *testing.T) {
	pool := openTestPool(t)
	seed := seedShopping(t, pool)
	repo := NewShoppingRepository(pool)

	items := []models.ShoppingListItem{
		{IngredientID: seed.ingredient, UnitID: seed.unit, CategoryID: seed.category, TotalQuantity: decimal.NewFromInt(450)},
		{IngredientID: -1, UnitID: seed.unit, CategoryID: seed.category, TotalQuantity: decimal.NewFromInt(1)},
	}

	_, err := repo.CreateWithItems(context.Background(), testList(seed.owner), items)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if got := countLists(t, pool, seed.owner); got != 0 {
		t.Fatalf("expected no lists after rollback, got %d", got)
	}
}

// TestCreateWithItemsAndToggleOwnership проверяет сохранение позиций и проверку владельца при переключении.
func TestCreateWithItemsAndToggleOwnership(t *testing.T) {
	pool := openTestPool(t)
	seed := seedShopping(t, pool)
	repo := NewShoppingRepository(pool)
	ctx := context.Background()

	items := []models.ShoppingListItem{
		{IngredientID: seed.ingredient, UnitID: seed.unit, CategoryID: seed.category, TotalQuantity: decimal.RequireFromString("1234567.25")},
	}

	list, err := repo.CreateWithItems(ctx, testList(seed.owner), items)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	stored, err := repo.ListItems(ctx, list.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 item, got %d", len(stored))
	}
	if !stored[0].TotalQuantity.Equal(decimal.RequireFromString("1234567.25")) {
		t.Fatalf("unexpected quantity %s", stored[0].TotalQuantity)
	}

	if _, err := repo.ToggleItem(ctx, seed.stranger, stored[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign item, got %v", err)
	}

	toggled, err := repo.ToggleItem(ctx, seed.owner, stored[0].ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.IsChecked {
		t.Fatal("expected item to be checked")
	}

	toggled, err = repo.ToggleItem(ctx, seed.owner, stored[0].ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if toggled.IsChecked {
		t.Fatal("expected item to be unchecked")
	}
}
