package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/config"
	"example.com/recipes-vault/backend/internal/handlers"
	"example.com/recipes-vault/backend/internal/metrics"
	"example.com/recipes-vault/backend/internal/newsletter"
	"example.com/recipes-vault/backend/internal/notifications"
	"example.com/recipes-vault/backend/internal/planner"
	"example.com/recipes-vault/backend/internal/repository"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, db *pgxpool.Pool, m *metrics.Metrics) (*echo.Echo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(m.Middleware())

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:       cfg.Auth.SessionSecret,
		Issuer:       cfg.Auth.SessionIssuer,
		TTL:          cfg.Auth.SessionTTL,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	states, err := auth.NewStateCodec(cfg.Auth.SessionSecret, cfg.Auth.SessionIssuer, cfg.Google.StateTTL)
	if err != nil {
		return nil, fmt.Errorf("login state codec: %w", err)
	}

	templates, err := newsletter.NewTemplates(cfg.Newsletter.AppBaseURL)
	if err != nil {
		return nil, fmt.Errorf("newsletter templates: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	savedRepo := repository.NewSavedRecipeRepository(db)
	mealRepo := repository.NewMealPlanRepository(db)
	shoppingRepo := repository.NewShoppingRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	newsletterLogRepo := repository.NewNewsletterLogRepository(db)
	notificationHub := notifications.NewHub()

	mailer := newsletter.NewBrevoClient(
		cfg.Newsletter.APIKey,
		cfg.Newsletter.BaseURL,
		cfg.Newsletter.SenderEmail,
		cfg.Newsletter.SenderName,
		cfg.Newsletter.Timeout,
	)
	newsletterService := newsletter.NewService(
		subscriberRepo,
		userRepo,
		newsletterLogRepo,
		mailer,
		templates,
		newsletter.Options{
			AppBaseURL:        cfg.Newsletter.AppBaseURL,
			SendRatePerSecond: cfg.Newsletter.SendRatePerSecond,
		},
		m,
		logger,
	)
	plannerService := planner.NewService(mealRepo, shoppingRepo, m)

	google := auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)

	registerRoutes(e, routeDeps{
		health:          handlers.Health(db),
		metrics:         echo.WrapHandler(m.Handler()),
		auth:            handlers.NewAuthHandler(userRepo, sessions, states, google, newsletterService, cfg.Admin.Emails, logger),
		recipes:         handlers.NewRecipeHandler(recipeRepo),
		ingredients:     handlers.NewIngredientHandler(ingredientRepo),
		lookups:         handlers.NewLookupHandler(lookupRepo),
		saved:           handlers.NewSavedRecipeHandler(savedRepo),
		mealPlan:        handlers.NewMealPlanHandler(plannerService, notificationHub),
		shopping:        handlers.NewShoppingHandler(plannerService, notificationHub),
		newsletter:      handlers.NewNewsletterHandler(newsletterService),
		adminNewsletter: handlers.NewAdminNewsletterHandler(newsletterService, subscriberRepo, newsletterLogRepo, recipeRepo, logger),
		notifications:   handlers.NewNotificationHandler(notificationHub),
		session:         auth.SessionMiddleware(sessions, userRepo),
		admin:           handlers.AdminMiddleware(cfg.Admin.Emails),
		authLimit:       rateLimiter(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst),
		subscribeLimit:  rateLimiter(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst),
	})

	return e, nil
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

// rateLimiter ограничивает запросы с одного IP. Каждый вызов создает отдельное хранилище.
func rateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	limit := rate.Limit(float64(perMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     burst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
