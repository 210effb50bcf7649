package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

const nonceCookieName = "rv_oauth_nonce"

// AccountStore хранит пользователей, вошедших через Google.
type AccountStore interface {
	UpsertFromGoogle(ctx context.Context, input repository.GoogleUserInput) (models.User, bool, error)
	SetNewsletterSubscribed(ctx context.Context, userID int64, subscribed bool) (models.User, error)
}

// NewsletterSyncer синхронизирует подписку с флагом пользователя.
type NewsletterSyncer interface {
	Sync(ctx context.Context, user models.User, subscribe bool) error
}

type AuthHandler struct {
	Users       AccountStore
	Sessions    *auth.SessionManager
	States      *auth.StateCodec
	Google      auth.IdentityProvider
	Newsletter  NewsletterSyncer
	AdminEmails map[string]struct{}
	Logger      *slog.Logger
}

// NewAuthHandler создает обработчик входа через Google.
func NewAuthHandler(users AccountStore, sessions *auth.SessionManager, states *auth.StateCodec, google auth.IdentityProvider, newsletter NewsletterSyncer, adminEmails []string, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		Users:       users,
		Sessions:    sessions,
		States:      states,
		Google:      google,
		Newsletter:  newsletter,
		AdminEmails: emailSet(adminEmails),
		Logger:      logger,
	}
}

type NewsletterPreferenceRequest struct {
	Subscribe *bool `json:"subscribe" validate:"required"`
}

type AuthUser struct {
	ID                     int64     `json:"id"`
	Email                  string    `json:"email"`
	Name                   string    `json:"name"`
	ProfilePictureURL      *string   `json:"profile_picture_url,omitempty"`
	IsNewsletterSubscribed bool      `json:"is_newsletter_subscribed"`
	IsAdmin                bool      `json:"is_admin"`
	DateJoined             time.Time `json:"date_joined"`
	LastLogin              time.Time `json:"last_login"`
}

type UserResponse struct {
	User AuthUser `json:"user"`
}

// GoogleLogin перенаправляет пользователя на страницу согласия Google.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	nonce, err := auth.NewNonce()
	if err != nil {
		return serverError(c)
	}

	state, err := h.States.Encode(auth.LoginState{
		Nonce:      nonce,
		ReturnTo:   c.QueryParam("return_to"),
		Newsletter: parseFlag(c.QueryParam("newsletter")),
	})
	if err != nil {
		return serverError(c)
	}

	c.SetCookie(&http.Cookie{
		Name:     nonceCookieName,
		Value:    nonce,
		Path:     "/",
		MaxAge:   int(h.States.TTL().Seconds()),
		HttpOnly: true,
		Secure:   c.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, h.Google.AuthCodeURL(state))
}

// GoogleCallback завершает вход: проверяет state, создает или обновляет пользователя и выдает сессию.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if providerErr := c.QueryParam("error"); providerErr != "" {
		return badRequest(c, "google sign-in failed: "+providerErr)
	}

	code := strings.TrimSpace(c.QueryParam("code"))
	if code == "" {
		return badRequest(c, "missing authorization code")
	}

	nonce := ""
	if cookie, err := c.Cookie(nonceCookieName); err == nil {
		nonce = cookie.Value
	}
	c.SetCookie(&http.Cookie{Name: nonceCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	state, err := h.States.Decode(c.QueryParam("state"), nonce)
	if err != nil {
		return badRequest(c, "invalid login state")
	}

	ctx := c.Request().Context()

	identity, err := h.Google.Exchange(ctx, code)
	if err != nil {
		h.Logger.Warn("google exchange failed", slog.String("error", err.Error()))
		return unauthorized(c)
	}

	user, created, err := h.Users.UpsertFromGoogle(ctx, repository.GoogleUserInput{
		GoogleID:          identity.Subject,
		Email:             identity.Email,
		DisplayName:       optionalString(identity.Name),
		ProfilePictureURL: optionalString(identity.Picture),
		NewsletterOptIn:   state.Newsletter,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "email is linked to another account")
		}
		return serverError(c)
	}

	if !user.IsActive {
		return forbidden(c)
	}

	h.syncNewsletter(ctx, user, user.IsNewsletterSubscribed)

	if created {
		h.Logger.Info("user registered", slog.Int64("user_id", user.ID))
	}

	if err := h.issueSession(c, user); err != nil {
		return serverError(c)
	}

	return c.Redirect(http.StatusFound, state.ReturnTo)
}

// Logout удаляет сессионную cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.Sessions.ClearCookie())
	return c.NoContent(http.StatusNoContent)
}

// Me возвращает профиль текущего пользователя.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	return c.JSON(http.StatusOK, UserResponse{User: h.toAuthUser(user)})
}

// UpdateNewsletter меняет предпочтение рассылки и синхронизирует подписку.
func (h *AuthHandler) UpdateNewsletter(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req NewsletterPreferenceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	ctx := c.Request().Context()

	user, err := h.Users.SetNewsletterSubscribed(ctx, userID, *req.Subscribe)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	if err := h.Newsletter.Sync(ctx, user, *req.Subscribe); err != nil {
		h.Logger.Error("newsletter sync failed", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		return serverError(c)
	}

	return c.JSON(http.StatusOK, UserResponse{User: h.toAuthUser(user)})
}

func (h *AuthHandler) issueSession(c echo.Context, user models.User) error {
	token, expiresAt, err := h.Sessions.Issue(user)
	if err != nil {
		return err
	}

	c.SetCookie(h.Sessions.Cookie(token, expiresAt))
	return nil
}

// syncNewsletter не прерывает вход при ошибке синхронизации.
func (h *AuthHandler) syncNewsletter(ctx context.Context, user models.User, subscribe bool) {
	if h.Newsletter == nil {
		return
	}

	if err := h.Newsletter.Sync(ctx, user, subscribe); err != nil {
		h.Logger.Error("newsletter sync failed", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
	}
}

func (h *AuthHandler) toAuthUser(user models.User) AuthUser {
	return AuthUser{
		ID:                     user.ID,
		Email:                  user.Email,
		Name:                   user.Name(),
		ProfilePictureURL:      user.ProfilePictureURL,
		IsNewsletterSubscribed: user.IsNewsletterSubscribed,
		IsAdmin:                isAdmin(user, h.AdminEmails),
		DateJoined:             user.DateJoined,
		LastLogin:              user.LastLogin,
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
}

func conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, map[string]string{"error": message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": message})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": "access denied"})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
