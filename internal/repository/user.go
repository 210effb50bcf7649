package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes-vault/backend/internal/models"
)

type UserRepository struct {
	db *pgxpool.Pool
}

// GoogleUserInput - данные профиля, полученные от Google при входе.
type GoogleUserInput struct {
	GoogleID          string
	Email             string
	DisplayName       *string
	ProfilePictureURL *string
	NewsletterOptIn   bool
}

const userColumns = `id, google_id, email, display_name, profile_picture_url, date_joined, last_login,
		        is_newsletter_subscribed, is_active, is_admin`

// NewUserRepository создает репозиторий пользователей.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromGoogle создает пользователя при первом входе или обновляет профиль при повторном.
// Флаг рассылки при входе может только включиться: отписка выполняется явно.
func (r *UserRepository) UpsertFromGoogle(ctx context.Context, input GoogleUserInput) (models.User, bool, error) {
	var user models.User
	var created bool

	err := r.db.QueryRow(ctx,
		`INSERT INTO users (google_id, email, display_name, profile_picture_url, is_newsletter_subscribed)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (google_id) DO UPDATE
		 SET last_login = NOW(),
		     display_name = EXCLUDED.display_name,
		     profile_picture_url = EXCLUDED.profile_picture_url,
		     is_newsletter_subscribed = users.is_newsletter_subscribed OR EXCLUDED.is_newsletter_subscribed
		 RETURNING `+userColumns+`, (xmax = 0) AS created`,
		input.GoogleID, input.Email, input.DisplayName, input.ProfilePictureURL, input.NewsletterOptIn,
	).Scan(&user.ID, &user.GoogleID, &user.Email, &user.DisplayName, &user.ProfilePictureURL, &user.DateJoined, &user.LastLogin,
		&user.IsNewsletterSubscribed, &user.IsActive, &user.IsAdmin, &created)
	if err != nil {
		return user, false, mapError(err)
	}

	return user, created, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByGoogleID возвращает пользователя по идентификатору Google.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

// SetNewsletterSubscribed меняет флаг подписки пользователя.
func (r *UserRepository) SetNewsletterSubscribed(ctx context.Context, userID int64, subscribed bool) (models.User, error) {
	return r.getOne(ctx,
		`UPDATE users
		 SET is_newsletter_subscribed = $2
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, subscribed,
	)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (models.User, error) {
	var user models.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.DisplayName, &user.ProfilePictureURL, &user.DateJoined, &user.LastLogin,
		&user.IsNewsletterSubscribed, &user.IsActive, &user.IsAdmin,
	)
	if err != nil {
		return user, mapError(err)
	}

	return user, nil
}
