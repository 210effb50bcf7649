package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"example.com/recipes-vault/backend/internal/models"
)

const (
	RecipeSortName     = "name"
	RecipeSortNameDesc = "name_desc"
	RecipeSortDateAsc  = "date_asc"
	RecipeSortDateDesc = "date_desc"
)

type RecipeRepository struct {
	db *pgxpool.Pool
}

type RecipeFilter struct {
	Search    string
	CuisineID *int64
	Sort      string
	Limit     int
	Offset    int
}

type RecipeInput struct {
	Name            string
	Description     *string
	PrepTime        int
	CookTime        int
	Servings        int
	DifficultyLevel *string
	CuisineID       int64
	Ingredients     []RecipeIngredientInput
	Instructions    []string
	TagIDs          []int64
}

type RecipeIngredientInput struct {
	IngredientID int64
	UnitID       int64
	Quantity     decimal.Decimal
	Notes        *string
}

type RecipeDetail struct {
	Recipe       models.Recipe             `json:"recipe"`
	Ingredients  []models.RecipeIngredient `json:"ingredients"`
	Instructions []models.Instruction      `json:"instructions"`
	Tags         []models.Tag              `json:"tags"`
}

const recipeSelect = `SELECT r.id, r.name, r.description, r.prep_time, r.cook_time, r.servings, r.difficulty_level,
		        r.cuisine_id, c.name, r.date_added
		 FROM recipes r
		 JOIN cuisines c ON c.id = r.cuisine_id`

// NewRecipeRepository создает репозиторий рецептов.
func NewRecipeRepository(db *pgxpool.Pool) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// List возвращает страницу рецептов с поиском, фильтром по кухне и сортировкой.
func (r *RecipeRepository) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if search := NormalizeSearch(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(r.name ILIKE $%d OR r.description ILIKE $%d)", len(args), len(args)))
	}

	if filter.CuisineID != nil {
		args = append(args, *filter.CuisineID)
		conditions = append(conditions, fmt.Sprintf("r.cuisine_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := recipeSelect + where + " ORDER BY " + recipeOrderBy(filter.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	recipes, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return recipes, total, nil
}

// Latest возвращает последние добавленные рецепты.
func (r *RecipeRepository) Latest(ctx context.Context, limit int) ([]models.Recipe, error) {
	return r.query(ctx, recipeSelect+` ORDER BY r.date_added DESC, r.id DESC LIMIT $1`, limit)
}

// GetByID возвращает рецепт с кухней.
func (r *RecipeRepository) GetByID(ctx context.Context, id int64) (models.Recipe, error) {
	var recipe models.Recipe

	err := r.db.QueryRow(ctx, recipeSelect+` WHERE r.id = $1`, id).Scan(
		&recipe.ID, &recipe.Name, &recipe.Description, &recipe.PrepTime, &recipe.CookTime, &recipe.Servings,
		&recipe.DifficultyLevel, &recipe.CuisineID, &recipe.CuisineName, &recipe.DateAdded,
	)
	if err != nil {
		return recipe, mapError(err)
	}

	return recipe, nil
}

// GetDetail возвращает рецепт с ингредиентами, шагами и тегами.
func (r *RecipeRepository) GetDetail(ctx context.Context, id int64) (RecipeDetail, error) {
	var detail RecipeDetail

	recipe, err := r.GetByID(ctx, id)
	if err != nil {
		return detail, err
	}
	detail.Recipe = recipe

	rows, err := r.db.Query(ctx,
		`SELECT ri.id, ri.recipe_id, ri.ingredient_id, i.name, ri.unit_id, u.name, ri.quantity, ri.notes
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 JOIN units u ON u.id = ri.unit_id
		 WHERE ri.recipe_id = $1
		 ORDER BY ri.id`,
		id,
	)
	if err != nil {
		return detail, err
	}
	defer rows.Close()

	detail.Ingredients = make([]models.RecipeIngredient, 0)
	for rows.Next() {
		var line models.RecipeIngredient
		if err := rows.Scan(&line.ID, &line.RecipeID, &line.IngredientID, &line.IngredientName, &line.UnitID, &line.UnitName, &line.Quantity, &line.Notes); err != nil {
			return detail, err
		}
		detail.Ingredients = append(detail.Ingredients, line)
	}
	if err := rows.Err(); err != nil {
		return detail, err
	}

	instructionRows, err := r.db.Query(ctx,
		`SELECT id, recipe_id, step_number, instruction_text
		 FROM instructions
		 WHERE recipe_id = $1
		 ORDER BY step_number`,
		id,
	)
	if err != nil {
		return detail, err
	}
	defer instructionRows.Close()

	detail.Instructions = make([]models.Instruction, 0)
	for instructionRows.Next() {
		var step models.Instruction
		if err := instructionRows.Scan(&step.ID, &step.RecipeID, &step.StepNumber, &step.InstructionText); err != nil {
			return detail, err
		}
		detail.Instructions = append(detail.Instructions, step)
	}
	if err := instructionRows.Err(); err != nil {
		return detail, err
	}

	tagRows, err := r.db.Query(ctx,
		`SELECT t.id, t.name
		 FROM recipe_tags rt
		 JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id = $1
		 ORDER BY t.name`,
		id,
	)
	if err != nil {
		return detail, err
	}
	defer tagRows.Close()

	detail.Tags = make([]models.Tag, 0)
	for tagRows.Next() {
		var tag models.Tag
		if err := tagRows.Scan(&tag.ID, &tag.Name); err != nil {
			return detail, err
		}
		detail.Tags = append(detail.Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return detail, err
	}

	return detail, nil
}

// Create сохраняет рецепт вместе с ингредиентами, шагами и тегами в одной транзакции.
func (r *RecipeRepository) Create(ctx context.Context, input RecipeInput) (models.Recipe, error) {
	var recipe models.Recipe

	if strings.TrimSpace(input.Name) == "" || input.CuisineID <= 0 {
		return recipe, ErrInvalid
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return recipe, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO recipes (name, description, prep_time, cook_time, servings, difficulty_level, cuisine_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, name, description, prep_time, cook_time, servings, difficulty_level, cuisine_id, date_added`,
		strings.TrimSpace(input.Name), input.Description, input.PrepTime, input.CookTime, input.Servings, input.DifficultyLevel, input.CuisineID,
	).Scan(&recipe.ID, &recipe.Name, &recipe.Description, &recipe.PrepTime, &recipe.CookTime, &recipe.Servings,
		&recipe.DifficultyLevel, &recipe.CuisineID, &recipe.DateAdded)
	if err != nil {
		return recipe, mapError(err)
	}

	for _, line := range input.Ingredients {
		if line.IngredientID <= 0 {
			continue
		}
		if line.Quantity.IsNegative() {
			return recipe, ErrInvalid
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, unit_id, quantity, notes)
			 VALUES ($1, $2, $3, $4, $5)`,
			recipe.ID, line.IngredientID, line.UnitID, line.Quantity, line.Notes,
		)
		if err != nil {
			return recipe, mapError(err)
		}
	}

	for idx, text := range numberedSteps(input.Instructions) {
		_, err = tx.Exec(ctx,
			`INSERT INTO instructions (recipe_id, step_number, instruction_text)
			 VALUES ($1, $2, $3)`,
			recipe.ID, idx+1, text,
		)
		if err != nil {
			return recipe, mapError(err)
		}
	}

	for _, tagID := range input.TagIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id)
			 VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			recipe.ID, tagID,
		)
		if err != nil {
			return recipe, mapError(err)
		}
	}

	if err := tx.QueryRow(ctx, `SELECT name FROM cuisines WHERE id = $1`, recipe.CuisineID).Scan(&recipe.CuisineName); err != nil {
		return recipe, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return recipe, err
	}

	return recipe, nil
}

// Delete удаляет рецепт; связанные строки удаляются каскадно.
func (r *RecipeRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *RecipeRepository) query(ctx context.Context, query string, args ...any) ([]models.Recipe, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := make([]models.Recipe, 0)
	for rows.Next() {
		var recipe models.Recipe
		err := rows.Scan(&recipe.ID, &recipe.Name, &recipe.Description, &recipe.PrepTime, &recipe.CookTime, &recipe.Servings,
			&recipe.DifficultyLevel, &recipe.CuisineID, &recipe.CuisineName, &recipe.DateAdded)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recipes, nil
}

func recipeOrderBy(sort string) string {
	switch sort {
	case RecipeSortNameDesc:
		return "r.name DESC, r.id DESC"
	case RecipeSortDateAsc:
		return "r.date_added ASC, r.id ASC"
	case RecipeSortDateDesc:
		return "r.date_added DESC, r.id DESC"
	default:
		return "r.name ASC, r.id ASC"
	}
}

// numberedSteps отбрасывает пустые шаги; номер шага равен позиции в результате плюс один.
func numberedSteps(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		trimmed := strings.TrimSpace(step)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// NormalizeSearch приводит поисковую строку к NFC и экранирует спецсимволы LIKE.
func NormalizeSearch(search string) string {
	trimmed := norm.NFC.String(strings.TrimSpace(search))
	if trimmed == "" {
		return ""
	}

	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(trimmed)
}
