package server

import (
	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/handlers"
)

type routeDeps struct {
	health          echo.HandlerFunc
	metrics         echo.HandlerFunc
	auth            *handlers.AuthHandler
	recipes         *handlers.RecipeHandler
	ingredients     *handlers.IngredientHandler
	lookups         *handlers.LookupHandler
	saved           *handlers.SavedRecipeHandler
	mealPlan        *handlers.MealPlanHandler
	shopping        *handlers.ShoppingHandler
	newsletter      *handlers.NewsletterHandler
	adminNewsletter *handlers.AdminNewsletterHandler
	notifications   *handlers.NotificationHandler

	session        echo.MiddlewareFunc
	admin          echo.MiddlewareFunc
	authLimit      echo.MiddlewareFunc
	subscribeLimit echo.MiddlewareFunc
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	e.GET("/health", d.health)
	e.GET("/metrics", d.metrics)

	api := e.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.GET("/google/login", d.auth.GoogleLogin, d.authLimit)
	authGroup.GET("/google/callback", d.auth.GoogleCallback, d.authLimit)
	authGroup.POST("/logout", d.auth.Logout)
	authGroup.GET("/me", d.auth.Me, d.session)
	authGroup.PUT("/newsletter", d.auth.UpdateNewsletter, d.session)

	recipes := api.Group("/recipes")
	recipes.GET("", d.recipes.List)
	recipes.GET("/:id", d.recipes.Get)
	recipes.POST("", d.recipes.Create, d.session)
	recipes.DELETE("/:id", d.recipes.Delete, d.session, d.admin)

	ingredients := api.Group("/ingredients")
	ingredients.GET("", d.ingredients.List)
	ingredients.GET("/options", d.ingredients.Options)
	ingredients.GET("/:id", d.ingredients.Get)
	ingredients.POST("", d.ingredients.Create, d.session)
	ingredients.PUT("/:id", d.ingredients.Update, d.session)

	api.GET("/categories", d.lookups.Categories)
	api.GET("/units", d.lookups.Units)
	api.GET("/cuisines", d.lookups.Cuisines)
	api.GET("/tags", d.lookups.Tags)

	saved := api.Group("/saved-recipes", d.session)
	saved.GET("", d.saved.List)
	saved.GET("/:recipeId", d.saved.Status)
	saved.POST("/:recipeId", d.saved.Save)
	saved.DELETE("/:recipeId", d.saved.Remove)

	mealPlan := api.Group("/meal-plan", d.session)
	mealPlan.GET("", d.mealPlan.Week)
	mealPlan.POST("/meals", d.mealPlan.Add)
	mealPlan.DELETE("/meals/:id", d.mealPlan.Remove)

	lists := api.Group("/shopping-lists", d.session)
	lists.POST("", d.shopping.Generate)
	lists.GET("", d.shopping.List)
	lists.GET("/:id", d.shopping.Get)
	lists.DELETE("/:id", d.shopping.Delete)
	lists.PATCH("/:id/completed", d.shopping.SetCompleted)
	lists.GET("/:id/export/csv", d.shopping.ExportCSV)
	lists.GET("/:id/export/json", d.shopping.ExportJSON)

	items := api.Group("/shopping-items", d.session)
	items.PATCH("/:itemId/toggle", d.shopping.ToggleItem)

	newsletter := api.Group("/newsletter")
	newsletter.POST("/subscribe", d.newsletter.Subscribe, d.subscribeLimit)
	newsletter.GET("/unsubscribe", d.newsletter.Unsubscribe)
	newsletter.POST("/unsubscribe", d.newsletter.Unsubscribe)
	newsletter.GET("/status", d.newsletter.Status, d.session)

	notifications := api.Group("/notifications", d.session)
	notifications.GET("/stream", d.notifications.Stream)

	admin := api.Group("/admin/newsletter", d.session, d.admin)
	admin.GET("", d.adminNewsletter.Stats)
	admin.GET("/compose", d.adminNewsletter.Compose)
	admin.POST("/send", d.adminNewsletter.Send)
	admin.POST("/preview", d.adminNewsletter.Preview)
	admin.GET("/subscribers", d.adminNewsletter.Subscribers)
	admin.GET("/templates", d.adminNewsletter.Templates)
	admin.GET("/templates/:name", d.adminNewsletter.Template)
}
