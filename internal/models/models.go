package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID                     int64     `json:"id"`
	GoogleID               string    `json:"-"`
	Email                  string    `json:"email"`
	DisplayName            *string   `json:"display_name,omitempty"`
	ProfilePictureURL      *string   `json:"profile_picture_url,omitempty"`
	DateJoined             time.Time `json:"date_joined"`
	LastLogin              time.Time `json:"last_login"`
	IsNewsletterSubscribed bool      `json:"is_newsletter_subscribed"`
	IsActive               bool      `json:"is_active"`
	IsAdmin                bool      `json:"is_admin"`
}

// Name возвращает отображаемое имя или email, если имя не задано.
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Unit struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Abbreviation *string `json:"abbreviation,omitempty"`
}

type Cuisine struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Ingredient struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
}

type Recipe struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	PrepTime        int       `json:"prep_time"`
	CookTime        int       `json:"cook_time"`
	Servings        int       `json:"servings"`
	DifficultyLevel *string   `json:"difficulty_level,omitempty"`
	CuisineID       int64     `json:"cuisine_id"`
	CuisineName     string    `json:"cuisine_name,omitempty"`
	DateAdded       time.Time `json:"date_added"`
}

type RecipeIngredient struct {
	ID             int64           `json:"id"`
	RecipeID       int64           `json:"recipe_id"`
	IngredientID   int64           `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	UnitID         int64           `json:"unit_id"`
	UnitName       string          `json:"unit_name,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Notes          *string         `json:"notes,omitempty"`
}

type Instruction struct {
	ID              int64  `json:"id"`
	RecipeID        int64  `json:"recipe_id"`
	StepNumber      int    `json:"step_number"`
	InstructionText string `json:"instruction_text"`
}

type SavedRecipe struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RecipeID  int64     `json:"recipe_id"`
	DateSaved time.Time `json:"date_saved"`
	Notes     *string   `json:"notes,omitempty"`
	Recipe    Recipe    `json:"recipe"`
}

// PlannedMeal - одно вхождение рецепта в план питания пользователя.
type PlannedMeal struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	RecipeID    int64     `json:"recipe_id"`
	PlannedDate time.Time `json:"planned_date"`
	DateCreated time.Time `json:"date_created"`
}

// PlannedMealDetail - запланированный прием пищи с краткими данными рецепта.
type PlannedMealDetail struct {
	PlannedMeal
	RecipeName  string `json:"recipe_name"`
	CuisineName string `json:"cuisine_name"`
	PrepTime    int    `json:"prep_time"`
	CookTime    int    `json:"cook_time"`
}

// IngredientLine - строка ингредиента рецепта с категорией ингредиента на момент чтения.
type IngredientLine struct {
	RecipeID     int64
	IngredientID int64
	UnitID       int64
	CategoryID   int64
	Quantity     decimal.Decimal
}

type ShoppingList struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ListName    string    `json:"list_name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	DateCreated time.Time `json:"date_created"`
	IsCompleted bool      `json:"is_completed"`
}

type ShoppingListItem struct {
	ID             int64           `json:"id"`
	ShoppingListID int64           `json:"shopping_list_id"`
	IngredientID   int64           `json:"ingredient_id"`
	UnitID         int64           `json:"unit_id"`
	CategoryID     int64           `json:"category_id"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	IsChecked      bool            `json:"is_checked"`
}

// ShoppingListItemDetail - позиция списка с именами ингредиента, единицы и категории.
type ShoppingListItemDetail struct {
	ShoppingListItem
	IngredientName string `json:"ingredient_name"`
	UnitName       string `json:"unit_name"`
	CategoryName   string `json:"category_name"`
}

type ShoppingListSummary struct {
	ShoppingList
	ItemCount    int `json:"item_count"`
	CheckedCount int `json:"checked_count"`
}

type NewsletterSubscriber struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	UserID           *int64     `json:"user_id,omitempty"`
	SubscribedDate   time.Time  `json:"subscribed_date"`
	UnsubscribedDate *time.Time `json:"unsubscribed_date,omitempty"`
	IsActive         bool       `json:"is_active"`
	UnsubscribeToken string     `json:"-"`
	LastEmailSent    *time.Time `json:"last_email_sent,omitempty"`
}

type NewsletterLog struct {
	ID             int64     `json:"id"`
	RecipeID       *int64    `json:"recipe_id,omitempty"`
	SubjectLine    string    `json:"subject_line"`
	RecipientCount int       `json:"recipient_count"`
	FailedCount    int       `json:"failed_count"`
	SentBy         *int64    `json:"sent_by,omitempty"`
	SentDate       time.Time `json:"sent_date"`
}
