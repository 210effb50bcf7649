package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type MealPlanRepository struct {
	db *pgxpool.Pool
}

// NewMealPlanRepository создает репозиторий плана питания.
func NewMealPlanRepository(db *pgxpool.Pool) *MealPlanRepository {
	return &MealPlanRepository{db: db}
}

// ListInRange возвращает все вхождения рецептов пользователя в диапазоне дат включительно.
func (r *MealPlanRepository) ListInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.PlannedMeal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, recipe_id, planned_date, date_created
		 FROM user_meal_plans
		 WHERE user_id = $1 AND planned_date BETWEEN $2 AND $3
		 ORDER BY planned_date, id`,
		userID, start, end,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PlannedMeal, error) {
		var meal models.PlannedMeal
		err := row.Scan(&meal.ID, &meal.UserID, &meal.RecipeID, &meal.PlannedDate, &meal.DateCreated)
		return meal, err
	})
}

// ListDetailedInRange возвращает план питания с краткими данными рецептов.
func (r *MealPlanRepository) ListDetailedInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.PlannedMealDetail, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.id, m.user_id, m.recipe_id, m.planned_date, m.date_created,
		        r.name, c.name, r.prep_time, r.cook_time
		 FROM user_meal_plans m
		 JOIN recipes r ON r.id = m.recipe_id
		 JOIN cuisines c ON c.id = r.cuisine_id
		 WHERE m.user_id = $1 AND m.planned_date BETWEEN $2 AND $3
		 ORDER BY m.planned_date, m.id`,
		userID, start, end,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PlannedMealDetail, error) {
		var meal models.PlannedMealDetail
		err := row.Scan(&meal.ID, &meal.UserID, &meal.RecipeID, &meal.PlannedDate, &meal.DateCreated,
			&meal.RecipeName, &meal.CuisineName, &meal.PrepTime, &meal.CookTime)
		return meal, err
	})
}

// Add планирует рецепт на дату. Дубликаты разрешены; несуществующий рецепт дает ErrNotFound.
func (r *MealPlanRepository) Add(ctx context.Context, userID, recipeID int64, date time.Time) (models.PlannedMeal, error) {
	var meal models.PlannedMeal

	err := r.db.QueryRow(ctx,
		`INSERT INTO user_meal_plans (user_id, recipe_id, planned_date)
		 SELECT $1, r.id, $3
		 FROM recipes r
		 WHERE r.id = $2
		 RETURNING id, user_id, recipe_id, planned_date, date_created`,
		userID, recipeID, date,
	).Scan(&meal.ID, &meal.UserID, &meal.RecipeID, &meal.PlannedDate, &meal.DateCreated)
	if err != nil {
		return meal, mapError(err)
	}

	return meal, nil
}

// Remove удаляет запланированный прием пищи владельца.
func (r *MealPlanRepository) Remove(ctx context.Context, userID, mealID int64) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM user_meal_plans
		 WHERE id = $1 AND user_id = $2`,
		mealID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
