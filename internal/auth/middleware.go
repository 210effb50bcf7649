package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/models"
)

const (
	ContextUserIDKey = "user_id"
	ContextUserKey   = "user"
)

// UserResolver находит пользователя по Google ID.
type UserResolver interface {
	GetByGoogleID(ctx context.Context, googleID string) (models.User, error)
}

// SessionMiddleware проверяет сессию из cookie или заголовка Authorization и сохраняет пользователя в контексте.
func SessionMiddleware(manager *SessionManager, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := sessionToken(c, manager.CookieName())
			if err != nil {
				return err
			}

			claims, err := manager.Parse(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			user, err := users.GetByGoogleID(c.Request().Context(), claims.GoogleID())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}

			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "account is disabled")
			}

			c.Set(ContextUserIDKey, user.ID)
			c.Set(ContextUserKey, user)
			return next(c)
		}
	}
}

func sessionToken(c echo.Context, cookieName string) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return tokenString, nil
	}

	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	return cookie.Value, nil
}

// UserIDFromContext извлекает идентификатор пользователя из контекста.
func UserIDFromContext(c echo.Context) (int64, bool) {
	value := c.Get(ContextUserIDKey)
	userID, ok := value.(int64)
	return userID, ok
}

// UserFromContext извлекает пользователя из контекста.
func UserFromContext(c echo.Context) (models.User, bool) {
	value := c.Get(ContextUserKey)
	user, ok := value.(models.User)
	return user, ok
}
