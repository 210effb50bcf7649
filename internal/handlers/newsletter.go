package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/newsletter"
	"example.com/recipes-vault/backend/internal/repository"
)

// Subscriptions управляет подписками из публичной формы.
type Subscriptions interface {
	Subscribe(ctx context.Context, email string) (bool, error)
	Unsubscribe(ctx context.Context, token string) (models.NewsletterSubscriber, error)
	Status(ctx context.Context, email string) (bool, error)
}

type NewsletterHandler struct {
	Subscriptions Subscriptions
}

// NewNewsletterHandler создает обработчик публичной подписки на рассылку.
func NewNewsletterHandler(subscriptions Subscriptions) *NewsletterHandler {
	return &NewsletterHandler{Subscriptions: subscriptions}
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type SubscriptionResponse struct {
	Subscribed bool   `json:"subscribed"`
	Message    string `json:"message"`
}

// Subscribe подписывает адрес на рассылку.
func (h *NewsletterHandler) Subscribe(c echo.Context) error {
	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "please enter a valid email address")
	}

	created, err := h.Subscriptions.Subscribe(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, newsletter.ErrInvalidEmail) {
			return badRequest(c, "please enter a valid email address")
		}
		return serverError(c)
	}

	if !created {
		return c.JSON(http.StatusOK, SubscriptionResponse{Subscribed: true, Message: "you are already subscribed"})
	}

	return c.JSON(http.StatusCreated, SubscriptionResponse{Subscribed: true, Message: "thank you for subscribing"})
}

// Unsubscribe отписывает по токену из письма. Доступен через GET и POST.
func (h *NewsletterHandler) Unsubscribe(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = c.FormValue("token")
	}
	if token == "" {
		return badRequest(c, "missing token")
	}

	subscriber, err := h.Subscriptions.Unsubscribe(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "subscription not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"email":   subscriber.Email,
		"message": "you have been unsubscribed",
	})
}

// Status сообщает, подписан ли текущий пользователь.
func (h *NewsletterHandler) Status(c echo.Context) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	subscribed, err := h.Subscriptions.Status(c.Request().Context(), user.Email)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]bool{"subscribed": subscribed})
}
