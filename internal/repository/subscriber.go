package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type SubscriberRepository struct {
	db *pgxpool.Pool
}

const subscriberColumns = `id, email, user_id, subscribed_date, unsubscribed_date, is_active, unsubscribe_token, last_email_sent`

// NewSubscriberRepository создает репозиторий подписчиков рассылки.
func NewSubscriberRepository(db *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// GetByEmail возвращает подписчика по email без учета регистра.
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (models.NewsletterSubscriber, error) {
	return r.getOne(ctx, `SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// GetByToken возвращает подписчика по токену отписки.
func (r *SubscriberRepository) GetByToken(ctx context.Context, token string) (models.NewsletterSubscriber, error) {
	return r.getOne(ctx, `SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE unsubscribe_token = $1`, token)
}

// Create добавляет активного подписчика. Повтор email или токена дает ErrConflict.
func (r *SubscriberRepository) Create(ctx context.Context, email string, userID *int64, token string) (models.NewsletterSubscriber, error) {
	return r.getOne(ctx,
		`INSERT INTO newsletter_subscribers (email, user_id, unsubscribe_token, is_active)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING `+subscriberColumns,
		strings.ToLower(strings.TrimSpace(email)), userID, token,
	)
}

// Reactivate снова включает подписку, сохраняя токен. userID привязывается, если передан.
func (r *SubscriberRepository) Reactivate(ctx context.Context, id int64, userID *int64) (models.NewsletterSubscriber, error) {
	return r.getOne(ctx,
		`UPDATE newsletter_subscribers
		 SET is_active = TRUE,
		     subscribed_date = NOW(),
		     unsubscribed_date = NULL,
		     user_id = COALESCE($2, user_id)
		 WHERE id = $1
		 RETURNING `+subscriberColumns,
		id, userID,
	)
}

// LinkUser привязывает подписчика к пользователю.
func (r *SubscriberRepository) LinkUser(ctx context.Context, id, userID int64) (models.NewsletterSubscriber, error) {
	return r.getOne(ctx,
		`UPDATE newsletter_subscribers
		 SET user_id = $2
		 WHERE id = $1
		 RETURNING `+subscriberColumns,
		id, userID,
	)
}

// Deactivate выключает подписку без удаления строки.
func (r *SubscriberRepository) Deactivate(ctx context.Context, id int64) (models.NewsletterSubscriber, error) {
	return r.getOne(ctx,
		`UPDATE newsletter_subscribers
		 SET is_active = FALSE,
		     unsubscribed_date = NOW()
		 WHERE id = $1
		 RETURNING `+subscriberColumns,
		id,
	)
}

// MarkSent фиксирует время последнего письма подписчику.
func (r *SubscriberRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE newsletter_subscribers
		 SET last_email_sent = $2
		 WHERE id = $1`,
		id, sentAt,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListActive возвращает активных подписчиков.
func (r *SubscriberRepository) ListActive(ctx context.Context) ([]models.NewsletterSubscriber, error) {
	return r.list(ctx,
		`SELECT `+subscriberColumns+`
		 FROM newsletter_subscribers
		 WHERE is_active
		 ORDER BY id`,
	)
}

// List возвращает страницу подписчиков, новые первыми, и общее количество.
func (r *SubscriberRepository) List(ctx context.Context, limit, offset int) ([]models.NewsletterSubscriber, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM newsletter_subscribers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	subscribers, err := r.list(ctx,
		`SELECT `+subscriberColumns+`
		 FROM newsletter_subscribers
		 ORDER BY subscribed_date DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}

	return subscribers, total, nil
}

// CountActive возвращает число активных подписчиков.
func (r *SubscriberRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM newsletter_subscribers WHERE is_active`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SubscriberRepository) getOne(ctx context.Context, query string, args ...any) (models.NewsletterSubscriber, error) {
	var s models.NewsletterSubscriber

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.Email, &s.UserID, &s.SubscribedDate, &s.UnsubscribedDate, &s.IsActive, &s.UnsubscribeToken, &s.LastEmailSent,
	)
	if err != nil {
		return s, mapError(err)
	}

	return s, nil
}

func (r *SubscriberRepository) list(ctx context.Context, query string, args ...any) ([]models.NewsletterSubscriber, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.NewsletterSubscriber, error) {
		var s models.NewsletterSubscriber
		err := row.Scan(&s.ID, &s.Email, &s.UserID, &s.SubscribedDate, &s.UnsubscribedDate, &s.IsActive, &s.UnsubscribeToken, &s.LastEmailSent)
		return s, err
	})
}
