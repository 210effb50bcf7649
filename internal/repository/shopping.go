package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type ShoppingRepository struct {
	db *pgxpool.Pool
}

const shoppingListColumns = `id, user_id, list_name, start_date, end_date, date_created, is_completed`

// NewShoppingRepository создает репозиторий списков покупок.
func NewShoppingRepository(db *pgxpool.Pool) *ShoppingRepository {
	return &ShoppingRepository{db: db}
}

// ListIngredientLines возвращает строки ингредиентов рецептов с текущей категорией ингредиента.
func (r *ShoppingRepository) ListIngredientLines(ctx context.Context, recipeIDs []int64) ([]models.IngredientLine, error) {
	if len(recipeIDs) == 0 {
		return []models.IngredientLine{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT ri.recipe_id, ri.ingredient_id, ri.unit_id, i.category_id, ri.quantity
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ANY($1)
		 ORDER BY ri.recipe_id, ri.id`,
		recipeIDs,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.IngredientLine, error) {
		var line models.IngredientLine
		err := row.Scan(&line.RecipeID, &line.IngredientID, &line.UnitID, &line.CategoryID, &line.Quantity)
		return line, err
	})
}

// CreateWithItems атомарно создает список и все его позиции.
func (r *ShoppingRepository) CreateWithItems(ctx context.Context, list models.ShoppingList, items []models.ShoppingListItem) (models.ShoppingList, error) {
	var created models.ShoppingList

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return created, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO shopping_lists (user_id, list_name, start_date, end_date, is_completed)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING `+shoppingListColumns,
		list.UserID, list.ListName, list.StartDate, list.EndDate,
	).Scan(&created.ID, &created.UserID, &created.ListName, &created.StartDate, &created.EndDate, &created.DateCreated, &created.IsCompleted)
	if err != nil {
		return created, mapError(err)
	}

	if len(items) > 0 {
		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(
				`INSERT INTO shopping_list_items (shopping_list_id, ingredient_id, unit_id, category_id, total_quantity, is_checked)
				 VALUES ($1, $2, $3, $4, $5, FALSE)`,
				created.ID, item.IngredientID, item.UnitID, item.CategoryID, item.TotalQuantity,
			)
		}

		if err := execBatch(tx.SendBatch(ctx, batch), batch.Len()); err != nil {
			return created, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return created, err
	}

	return created, nil
}

// GetByID возвращает список владельца. Чужой или отсутствующий список дает ErrNotFound.
func (r *ShoppingRepository) GetByID(ctx context.Context, userID, listID int64) (models.ShoppingList, error) {
	var list models.ShoppingList

	err := r.db.QueryRow(ctx,
		`SELECT `+shoppingListColumns+`
		 FROM shopping_lists
		 WHERE id = $1 AND user_id = $2`,
		listID, userID,
	).Scan(&list.ID, &list.UserID, &list.ListName, &list.StartDate, &list.EndDate, &list.DateCreated, &list.IsCompleted)
	if err != nil {
		return list, mapError(err)
	}

	return list, nil
}

// ListItems возвращает позиции списка с именами ингредиента, единицы и категории.
func (r *ShoppingRepository) ListItems(ctx context.Context, listID int64) ([]models.ShoppingListItemDetail, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.shopping_list_id, s.ingredient_id, s.unit_id, s.category_id, s.total_quantity, s.is_checked,
		        i.name, u.name, c.name
		 FROM shopping_list_items s
		 JOIN ingredients i ON i.id = s.ingredient_id
		 JOIN units u ON u.id = s.unit_id
		 JOIN categories c ON c.id = s.category_id
		 WHERE s.shopping_list_id = $1
		 ORDER BY c.name, i.name, s.id`,
		listID,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ShoppingListItemDetail, error) {
		var item models.ShoppingListItemDetail
		err := row.Scan(&item.ID, &item.ShoppingListID, &item.IngredientID, &item.UnitID, &item.CategoryID, &item.TotalQuantity, &item.IsChecked,
			&item.IngredientName, &item.UnitName, &item.CategoryName)
		return item, err
	})
}

// ListByUser возвращает списки пользователя, новые первыми.
func (r *ShoppingRepository) ListByUser(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.user_id, l.list_name, l.start_date, l.end_date, l.date_created, l.is_completed,
		        COUNT(s.id) AS item_count,
		        COUNT(s.id) FILTER (WHERE s.is_checked) AS checked_count
		 FROM shopping_lists l
		 LEFT JOIN shopping_list_items s ON s.shopping_list_id = l.id
		 WHERE l.user_id = $1
		 GROUP BY l.id
		 ORDER BY l.date_created DESC, l.id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ShoppingListSummary, error) {
		var summary models.ShoppingListSummary
		err := row.Scan(&summary.ID, &summary.UserID, &summary.ListName, &summary.StartDate, &summary.EndDate, &summary.DateCreated,
			&summary.IsCompleted, &summary.ItemCount, &summary.CheckedCount)
		return summary, err
	})
}

// Delete удаляет список владельца вместе с позициями.
func (r *ShoppingRepository) Delete(ctx context.Context, userID, listID int64) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM shopping_lists
		 WHERE id = $1 AND user_id = $2`,
		listID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetCompleted меняет флаг завершения списка владельца.
func (r *ShoppingRepository) SetCompleted(ctx context.Context, userID, listID int64, completed bool) (models.ShoppingList, error) {
	var list models.ShoppingList

	err := r.db.QueryRow(ctx,
		`UPDATE shopping_lists
		 SET is_completed = $3
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+shoppingListColumns,
		listID, userID, completed,
	).Scan(&list.ID, &list.UserID, &list.ListName, &list.StartDate, &list.EndDate, &list.DateCreated, &list.IsCompleted)
	if err != nil {
		return list, mapError(err)
	}

	return list, nil
}

// ToggleItem инвертирует отметку позиции, если список принадлежит пользователю.
func (r *ShoppingRepository) ToggleItem(ctx context.Context, userID, itemID int64) (models.ShoppingListItem, error) {
	var item models.ShoppingListItem

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return item, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current bool
	err = tx.QueryRow(ctx,
		`SELECT s.is_checked
		 FROM shopping_list_items s
		 JOIN shopping_lists l ON l.id = s.shopping_list_id
		 WHERE s.id = $1 AND l.user_id = $2
		 FOR UPDATE OF s`,
		itemID, userID,
	).Scan(&current)
	if err != nil {
		return item, mapError(err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE shopping_list_items
		 SET is_checked = $2
		 WHERE id = $1
		 RETURNING id, shopping_list_id, ingredient_id, unit_id, category_id, total_quantity, is_checked`,
		itemID, !current,
	).Scan(&item.ID, &item.ShoppingListID, &item.IngredientID, &item.UnitID, &item.CategoryID, &item.TotalQuantity, &item.IsChecked)
	if err != nil {
		return item, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return item, err
	}

	return item, nil
}

// execBatch выполняет n команд пакета и закрывает его. Первая ошибка прерывает пакет.
func execBatch(results pgx.BatchResults, n int) error {
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return mapError(err)
		}
	}

	return mapError(results.Close())
}
