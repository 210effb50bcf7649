package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type NewsletterLogRepository struct {
	db *pgxpool.Pool
}

// NewNewsletterLogRepository создает журнал отправленных рассылок.
func NewNewsletterLogRepository(db *pgxpool.Pool) *NewsletterLogRepository {
	return &NewsletterLogRepository{db: db}
}

// Record сохраняет запись о рассылке и историю получения для привязанных пользователей.
func (r *NewsletterLogRepository) Record(ctx context.Context, entry models.NewsletterLog, userIDs []int64) (models.NewsletterLog, error) {
	var saved models.NewsletterLog

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return saved, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO newsletter_logs (recipe_id, subject_line, recipient_count, failed_count, sent_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, recipe_id, subject_line, recipient_count, failed_count, sent_by, sent_date`,
		entry.RecipeID, entry.SubjectLine, entry.RecipientCount, entry.FailedCount, entry.SentBy,
	).Scan(&saved.ID, &saved.RecipeID, &saved.SubjectLine, &saved.RecipientCount, &saved.FailedCount, &saved.SentBy, &saved.SentDate)
	if err != nil {
		return saved, mapError(err)
	}

	if len(userIDs) > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO user_newsletter_histories (user_id, newsletter_id, sent_date)
			 SELECT unnest($1::bigint[]), $2, $3`,
			userIDs, saved.ID, saved.SentDate,
		)
		if err != nil {
			return saved, mapError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return saved, err
	}

	return saved, nil
}

// Recent возвращает последние рассылки.
func (r *NewsletterLogRepository) Recent(ctx context.Context, limit int) ([]models.NewsletterLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, recipe_id, subject_line, recipient_count, failed_count, sent_by, sent_date
		 FROM newsletter_logs
		 ORDER BY sent_date DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.NewsletterLog, error) {
		var entry models.NewsletterLog
		err := row.Scan(&entry.ID, &entry.RecipeID, &entry.SubjectLine, &entry.RecipientCount, &entry.FailedCount, &entry.SentBy, &entry.SentDate)
		return entry, err
	})
}
