package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type LookupRepository struct {
	db *pgxpool.Pool
}

// NewLookupRepository создает репозиторий справочников.
func NewLookupRepository(db *pgxpool.Pool) *LookupRepository {
	return &LookupRepository{db: db}
}

// Categories возвращает категории ингредиентов.
func (r *LookupRepository) Categories(ctx context.Context) ([]models.Category, error) {
	return listNamed(ctx, r.db, `SELECT id, name FROM categories ORDER BY name`, func(id int64, name string) models.Category {
		return models.Category{ID: id, Name: name}
	})
}

// Cuisines возвращает кухни.
func (r *LookupRepository) Cuisines(ctx context.Context) ([]models.Cuisine, error) {
	return listNamed(ctx, r.db, `SELECT id, name FROM cuisines ORDER BY name`, func(id int64, name string) models.Cuisine {
		return models.Cuisine{ID: id, Name: name}
	})
}

// Tags возвращает теги рецептов.
func (r *LookupRepository) Tags(ctx context.Context) ([]models.Tag, error) {
	return listNamed(ctx, r.db, `SELECT id, name FROM tags ORDER BY name`, func(id int64, name string) models.Tag {
		return models.Tag{ID: id, Name: name}
	})
}

// Units возвращает единицы измерения.
func (r *LookupRepository) Units(ctx context.Context) ([]models.Unit, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, abbreviation FROM units ORDER BY name`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Unit, error) {
		var unit models.Unit
		err := row.Scan(&unit.ID, &unit.Name, &unit.Abbreviation)
		return unit, err
	})
}

func listNamed[T any](ctx context.Context, db *pgxpool.Pool, query string, build func(id int64, name string) T) ([]T, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		var id int64
		var name string
		if err := row.Scan(&id, &name); err != nil {
			var zero T
			return zero, err
		}
		return build(id, name), nil
	})
}
