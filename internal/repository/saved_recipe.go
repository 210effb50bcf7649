package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type SavedRecipeRepository struct {
	db *pgxpool.Pool
}

// NewSavedRecipeRepository создает репозиторий сохраненных рецептов.
func NewSavedRecipeRepository(db *pgxpool.Pool) *SavedRecipeRepository {
	return &SavedRecipeRepository{db: db}
}

// ListByUser возвращает сохраненные рецепты пользователя, новые первыми.
func (r *SavedRecipeRepository) ListByUser(ctx context.Context, userID int64) ([]models.SavedRecipe, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ur.id, ur.user_id, ur.recipe_id, ur.date_saved, ur.notes,
		        r.id, r.name, r.description, r.prep_time, r.cook_time, r.servings, r.difficulty_level,
		        r.cuisine_id, c.name, r.date_added
		 FROM user_recipes ur
		 JOIN recipes r ON r.id = ur.recipe_id
		 JOIN cuisines c ON c.id = r.cuisine_id
		 WHERE ur.user_id = $1
		 ORDER BY ur.date_saved DESC, ur.id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := make([]models.SavedRecipe, 0)
	for rows.Next() {
		var item models.SavedRecipe
		err := rows.Scan(&item.ID, &item.UserID, &item.RecipeID, &item.DateSaved, &item.Notes,
			&item.Recipe.ID, &item.Recipe.Name, &item.Recipe.Description, &item.Recipe.PrepTime, &item.Recipe.CookTime,
			&item.Recipe.Servings, &item.Recipe.DifficultyLevel, &item.Recipe.CuisineID, &item.Recipe.CuisineName, &item.Recipe.DateAdded)
		if err != nil {
			return nil, err
		}
		saved = append(saved, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return saved, nil
}

// Save сохраняет рецепт пользователю. Повторное сохранение обновляет заметку и не создает дубликат.
func (r *SavedRecipeRepository) Save(ctx context.Context, userID, recipeID int64, notes *string) (models.SavedRecipe, error) {
	var item models.SavedRecipe

	err := r.db.QueryRow(ctx,
		`INSERT INTO user_recipes (user_id, recipe_id, notes)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, recipe_id) DO UPDATE
		 SET notes = COALESCE(EXCLUDED.notes, user_recipes.notes)
		 RETURNING id, user_id, recipe_id, date_saved, notes`,
		userID, recipeID, notes,
	).Scan(&item.ID, &item.UserID, &item.RecipeID, &item.DateSaved, &item.Notes)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, ErrInvalid) {
			return item, ErrNotFound
		}
		return item, err
	}

	return item, nil
}

// Remove удаляет рецепт из сохраненных.
func (r *SavedRecipeRepository) Remove(ctx context.Context, userID, recipeID int64) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM user_recipes
		 WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IsSaved проверяет, сохранен ли рецепт пользователем.
func (r *SavedRecipeRepository) IsSaved(ctx context.Context, userID, recipeID int64) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_recipes WHERE user_id = $1 AND recipe_id = $2)`,
		userID, recipeID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
