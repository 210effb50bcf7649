package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/newsletter"
	"example.com/recipes-vault/backend/internal/repository"
)

const (
	composeRecipeLimit = 10
	recentLogLimit     = 10
)

// SubscriberLister отдает страницу подписчиков для админки.
type SubscriberLister interface {
	List(ctx context.Context, limit, offset int) ([]models.NewsletterSubscriber, int, error)
}

type AdminNewsletterHandler struct {
	Newsletter     *newsletter.Service
	SubscriberRepo SubscriberLister
	Logs           *repository.NewsletterLogRepository
	Recipes        *repository.RecipeRepository
	Logger         *slog.Logger
}

// NewAdminNewsletterHandler создает обработчик админки рассылки.
func NewAdminNewsletterHandler(service *newsletter.Service, subscribers SubscriberLister, logs *repository.NewsletterLogRepository, recipes *repository.RecipeRepository, logger *slog.Logger) *AdminNewsletterHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminNewsletterHandler{
		Newsletter:     service,
		SubscriberRepo: subscribers,
		Logs:           logs,
		Recipes:        recipes,
		Logger:         logger,
	}
}

type NewsletterStatsResponse struct {
	ActiveSubscribers int                    `json:"active_subscribers"`
	RecentNewsletters []models.NewsletterLog `json:"recent_newsletters"`
}

type ComposeResponse struct {
	Recipes   []models.Recipe           `json:"recipes"`
	Templates []newsletter.TemplateInfo `json:"templates"`
}

type SendNewsletterRequest struct {
	Subject     string `json:"subject" validate:"required,max=200"`
	HTMLContent string `json:"html_content"`
	Template    string `json:"template" validate:"omitempty,max=50"`
	RecipeID    *int64 `json:"recipe_id" validate:"omitempty,gt=0"`
}

type PreviewNewsletterRequest struct {
	HTMLContent string `json:"html_content"`
	Template    string `json:"template" validate:"omitempty,max=50"`
	RecipeID    *int64 `json:"recipe_id" validate:"omitempty,gt=0"`
}

type SubscribersResponse struct {
	Total       int                           `json:"total"`
	Subscribers []models.NewsletterSubscriber `json:"subscribers"`
}

type TemplateResponse struct {
	Name string `json:"name"`
	HTML string `json:"html"`
}

// Stats возвращает число активных подписчиков и последние рассылки.
func (h *AdminNewsletterHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	active, err := h.Newsletter.CountActive(ctx)
	if err != nil {
		return serverError(c)
	}

	logs, err := h.Logs.Recent(ctx, recentLogLimit)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, NewsletterStatsResponse{ActiveSubscribers: active, RecentNewsletters: logs})
}

// Compose возвращает последние рецепты и шаблоны для формы рассылки.
func (h *AdminNewsletterHandler) Compose(c echo.Context) error {
	recipes, err := h.Recipes.Latest(c.Request().Context(), composeRecipeLimit)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, ComposeResponse{Recipes: recipes, Templates: h.Newsletter.Templates().List()})
}

// Send рассылает письмо всем активным подписчикам.
func (h *AdminNewsletterHandler) Send(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req SendNewsletterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	content, err := h.content(c, req.HTMLContent, req.Template, req.RecipeID)
	if err != nil {
		return newsletterContentError(c, err)
	}

	result, err := h.Newsletter.Send(c.Request().Context(), newsletter.Campaign{
		Subject:  req.Subject,
		HTML:     content,
		RecipeID: req.RecipeID,
		SentBy:   &userID,
	})
	if err != nil {
		if errors.Is(err, newsletter.ErrEmptyContent) {
			return badRequest(c, "subject and content are required")
		}
		h.Logger.Error("newsletter send failed", slog.String("error", err.Error()))
		return serverError(c)
	}

	return c.JSON(http.StatusOK, result)
}

// Preview возвращает письмо в том виде, в котором его получат подписчики.
func (h *AdminNewsletterHandler) Preview(c echo.Context) error {
	var req PreviewNewsletterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	content, err := h.content(c, req.HTMLContent, req.Template, req.RecipeID)
	if err != nil {
		return newsletterContentError(c, err)
	}

	preview, err := h.Newsletter.Preview(content)
	if err != nil {
		if errors.Is(err, newsletter.ErrEmptyContent) {
			return badRequest(c, "content is required")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, preview)
}

// Subscribers возвращает страницу подписчиков, новые первыми.
func (h *AdminNewsletterHandler) Subscribers(c echo.Context) error {
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	subscribers, total, err := h.SubscriberRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, SubscribersResponse{Total: total, Subscribers: subscribers})
}

func (h *AdminNewsletterHandler) Templates(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]newsletter.TemplateInfo{"templates": h.Newsletter.Templates().List()})
}

// Template возвращает шаблон, заполненный последними рецептами.
func (h *AdminNewsletterHandler) Template(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))

	html, err := h.content(c, "", name, nil)
	if err != nil {
		if errors.Is(err, newsletter.ErrUnknownTemplate) {
			return notFound(c, "template not found")
		}
		return newsletterContentError(c, err)
	}

	return c.JSON(http.StatusOK, TemplateResponse{Name: name, HTML: html})
}

// content возвращает готовый HTML: заданный вручную или отрисованный по шаблону.
// Выбранный рецепт ставится первым.
func (h *AdminNewsletterHandler) content(c echo.Context, html, templateName string, recipeID *int64) (string, error) {
	templateName = strings.TrimSpace(templateName)
	if templateName == "" {
		return html, nil
	}

	ctx := c.Request().Context()

	recipes, err := h.Recipes.Latest(ctx, composeRecipeLimit)
	if err != nil {
		return "", err
	}

	if recipeID != nil {
		featured, err := h.Recipes.GetByID(ctx, *recipeID)
		if err != nil {
			return "", err
		}
		recipes = prependRecipe(featured, recipes)
	}

	return h.Newsletter.Templates().Render(templateName, recipes)
}

func prependRecipe(first models.Recipe, recipes []models.Recipe) []models.Recipe {
	out := make([]models.Recipe, 0, len(recipes)+1)
	out = append(out, first)
	for _, recipe := range recipes {
		if recipe.ID != first.ID {
			out = append(out, recipe)
		}
	}
	return out
}

func newsletterContentError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, newsletter.ErrUnknownTemplate):
		return badRequest(c, "unknown template")
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "recipe not found")
	default:
		return serverError(c)
	}
}

// AdminMiddleware пропускает администраторов: флаг is_admin или email из списка ADMIN_EMAILS.
func AdminMiddleware(emails []string) echo.MiddlewareFunc {
	allowed := emailSet(emails)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := auth.UserFromContext(c)
			if !ok {
				return unauthorized(c)
			}

			if !isAdmin(user, allowed) {
				return forbidden(c)
			}

			return next(c)
		}
	}
}

func emailSet(emails []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		trimmed := strings.ToLower(strings.TrimSpace(email))
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}
	return allowed
}

func isAdmin(user models.User, allowed map[string]struct{}) bool {
	if user.IsAdmin {
		return true
	}

	_, ok := allowed[strings.ToLower(strings.TrimSpace(user.Email))]
	return ok
}

func parsePagination(c echo.Context, defaultLimit, maxLimit int) (int, int, error) {
	limit := defaultLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if parsed > maxLimit {
			parsed = maxLimit
		}
		limit = parsed
	}

	offset := 0
	if raw := strings.TrimSpace(c.QueryParam("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = parsed
	}

	return limit, offset, nil
}
