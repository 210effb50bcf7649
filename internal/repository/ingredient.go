package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type IngredientRepository struct {
	db *pgxpool.Pool
}

type IngredientFilter struct {
	Search     string
	CategoryID *int64
}

const ingredientSelect = `SELECT i.id, i.name, i.category_id, c.name
		 FROM ingredients i
		 JOIN categories c ON c.id = i.category_id`

// NewIngredientRepository создает репозиторий ингредиентов.
func NewIngredientRepository(db *pgxpool.Pool) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// List возвращает ингредиенты по фильтру, отсортированные по имени.
func (r *IngredientRepository) List(ctx context.Context, filter IngredientFilter) ([]models.Ingredient, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if search := NormalizeSearch(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("i.name ILIKE $%d", len(args)))
	}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("i.category_id = $%d", len(args)))
	}

	query := ingredientSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY i.name, i.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]models.Ingredient, 0)
	for rows.Next() {
		var ingredient models.Ingredient
		if err := rows.Scan(&ingredient.ID, &ingredient.Name, &ingredient.CategoryID, &ingredient.CategoryName); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ingredients, nil
}

// GetByID возвращает ингредиент с категорией.
func (r *IngredientRepository) GetByID(ctx context.Context, id int64) (models.Ingredient, error) {
	var ingredient models.Ingredient

	err := r.db.QueryRow(ctx, ingredientSelect+` WHERE i.id = $1`, id).
		Scan(&ingredient.ID, &ingredient.Name, &ingredient.CategoryID, &ingredient.CategoryName)
	if err != nil {
		return ingredient, mapError(err)
	}

	return ingredient, nil
}

// Create добавляет ингредиент. Несуществующая категория дает ErrInvalid.
func (r *IngredientRepository) Create(ctx context.Context, name string, categoryID int64) (models.Ingredient, error) {
	var ingredient models.Ingredient

	err := r.db.QueryRow(ctx,
		`WITH inserted AS (
		     INSERT INTO ingredients (name, category_id)
		     VALUES ($1, $2)
		     RETURNING id, name, category_id
		 )
		 SELECT ins.id, ins.name, ins.category_id, c.name
		 FROM inserted ins
		 JOIN categories c ON c.id = ins.category_id`,
		name, categoryID,
	).Scan(&ingredient.ID, &ingredient.Name, &ingredient.CategoryID, &ingredient.CategoryName)
	if err != nil {
		return ingredient, mapError(err)
	}

	return ingredient, nil
}

// Update меняет имя и категорию ингредиента. Уже созданные списки покупок сохраняют прежнюю категорию.
func (r *IngredientRepository) Update(ctx context.Context, id int64, name string, categoryID int64) (models.Ingredient, error) {
	var ingredient models.Ingredient

	err := r.db.QueryRow(ctx,
		`WITH updated AS (
		     UPDATE ingredients
		     SET name = $2, category_id = $3
		     WHERE id = $1
		     RETURNING id, name, category_id
		 )
		 SELECT u.id, u.name, u.category_id, c.name
		 FROM updated u
		 JOIN categories c ON c.id = u.category_id`,
		id, name, categoryID,
	).Scan(&ingredient.ID, &ingredient.Name, &ingredient.CategoryID, &ingredient.CategoryName)
	if err != nil {
		return ingredient, mapError(err)
	}

	return ingredient, nil
}
