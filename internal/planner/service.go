package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/recipes-vault/backend/internal/models"
)

var (
	// ErrNothingPlanned означает, что в диапазоне нет запланированных рецептов; список не создается.
	ErrNothingPlanned = errors.New("no meals planned for this period")
	// ErrInvalidRange означает отсутствующую дату или начало позже конца.
	ErrInvalidRange = errors.New("invalid date range")
)

// MealStore хранит план питания.
type MealStore interface {
	ListInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.PlannedMeal, error)
	ListDetailedInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.PlannedMealDetail, error)
	Add(ctx context.Context, userID, recipeID int64, date time.Time) (models.PlannedMeal, error)
	Remove(ctx context.Context, userID, mealID int64) error
}

// ListStore хранит списки покупок. CreateWithItems обязан быть атомарным.
type ListStore interface {
	ListIngredientLines(ctx context.Context, recipeIDs []int64) ([]models.IngredientLine, error)
	CreateWithItems(ctx context.Context, list models.ShoppingList, items []models.ShoppingListItem) (models.ShoppingList, error)
	GetByID(ctx context.Context, userID, listID int64) (models.ShoppingList, error)
	ListItems(ctx context.Context, listID int64) ([]models.ShoppingListItemDetail, error)
	ListByUser(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error)
	Delete(ctx context.Context, userID, listID int64) error
	SetCompleted(ctx context.Context, userID, listID int64, completed bool) (models.ShoppingList, error)
	ToggleItem(ctx context.Context, userID, itemID int64) (models.ShoppingListItem, error)
}

// Recorder получает сведения о созданных списках. Реализуется пакетом metrics.
type Recorder interface {
	ShoppingListGenerated(items int)
}

type Service struct {
	meals    MealStore
	lists    ListStore
	recorder Recorder
}

type DayPlan struct {
	Date  time.Time                  `json:"date"`
	Meals []models.PlannedMealDetail `json:"meals"`
}

type WeekPlan struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      []DayPlan `json:"days"`
}

// NewService создает сервис планировщика. recorder может быть nil.
func NewService(meals MealStore, lists ListStore, recorder Recorder) *Service {
	return &Service{meals: meals, lists: lists, recorder: recorder}
}

// GenerateShoppingList собирает список покупок по плану пользователя за диапазон дат включительно.
func (s *Service) GenerateShoppingList(ctx context.Context, userID int64, start, end time.Time) (models.ShoppingList, error) {
	start, end, err := NormalizeRange(start, end)
	if err != nil {
		return models.ShoppingList{}, err
	}

	meals, err := s.meals.ListInRange(ctx, userID, start, end)
	if err != nil {
		return models.ShoppingList{}, fmt.Errorf("list planned meals: %w", err)
	}

	if len(meals) == 0 {
		return models.ShoppingList{}, ErrNothingPlanned
	}

	lines, err := s.lists.ListIngredientLines(ctx, distinctRecipeIDs(meals))
	if err != nil {
		return models.ShoppingList{}, fmt.Errorf("list ingredient lines: %w", err)
	}

	items := Aggregate(meals, lines)

	list := models.ShoppingList{
		UserID:    userID,
		ListName:  ListName(start, end),
		StartDate: start,
		EndDate:   end,
	}

	created, err := s.lists.CreateWithItems(ctx, list, items)
	if err != nil {
		return models.ShoppingList{}, fmt.Errorf("create shopping list: %w", err)
	}

	if s.recorder != nil {
		s.recorder.ShoppingListGenerated(len(items))
	}

	return created, nil
}

// ViewShoppingList возвращает список владельца с позициями, сгруппированными по категориям.
// Чужой список неотличим от отсутствующего.
func (s *Service) ViewShoppingList(ctx context.Context, userID, listID int64) (ShoppingListView, error) {
	list, err := s.lists.GetByID(ctx, userID, listID)
	if err != nil {
		return ShoppingListView{}, err
	}

	items, err := s.lists.ListItems(ctx, list.ID)
	if err != nil {
		return ShoppingListView{}, fmt.Errorf("list shopping items: %w", err)
	}

	return buildView(list, items), nil
}

// ToggleItemChecked инвертирует отметку позиции в списке владельца.
func (s *Service) ToggleItemChecked(ctx context.Context, userID, itemID int64) (models.ShoppingListItem, error) {
	return s.lists.ToggleItem(ctx, userID, itemID)
}

// ListShoppingLists возвращает списки пользователя, новые первыми.
func (s *Service) ListShoppingLists(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error) {
	return s.lists.ListByUser(ctx, userID)
}

// DeleteShoppingList удаляет список владельца вместе с позициями.
func (s *Service) DeleteShoppingList(ctx context.Context, userID, listID int64) error {
	return s.lists.Delete(ctx, userID, listID)
}

// SetListCompleted отмечает список завершенным или снимает отметку.
func (s *Service) SetListCompleted(ctx context.Context, userID, listID int64, completed bool) (models.ShoppingList, error) {
	return s.lists.SetCompleted(ctx, userID, listID, completed)
}

// WeeklyPlan возвращает семь дней плана, начиная с weekStart. Нулевая дата означает текущую неделю.
func (s *Service) WeeklyPlan(ctx context.Context, userID int64, weekStart time.Time) (WeekPlan, error) {
	if weekStart.IsZero() {
		weekStart = WeekStart(time.Now())
	}

	start := Day(weekStart)
	end := start.AddDate(0, 0, weekDays-1)

	meals, err := s.meals.ListDetailedInRange(ctx, userID, start, end)
	if err != nil {
		return WeekPlan{}, fmt.Errorf("list week meals: %w", err)
	}

	plan := WeekPlan{StartDate: start, EndDate: end, Days: make([]DayPlan, weekDays)}
	for i := range plan.Days {
		plan.Days[i] = DayPlan{Date: start.AddDate(0, 0, i), Meals: make([]models.PlannedMealDetail, 0)}
	}

	for _, meal := range meals {
		offset := int(Day(meal.PlannedDate).Sub(start).Hours() / 24)
		if offset < 0 || offset >= weekDays {
			continue
		}
		plan.Days[offset].Meals = append(plan.Days[offset].Meals, meal)
	}

	return plan, nil
}

// AddMeal планирует рецепт на дату. Один рецепт можно запланировать несколько раз.
func (s *Service) AddMeal(ctx context.Context, userID, recipeID int64, date time.Time) (models.PlannedMeal, error) {
	if date.IsZero() {
		return models.PlannedMeal{}, ErrInvalidRange
	}
	return s.meals.Add(ctx, userID, recipeID, Day(date))
}

// RemoveMeal удаляет запланированный прием пищи. Уже созданные списки не меняются.
func (s *Service) RemoveMeal(ctx context.Context, userID, mealID int64) error {
	return s.meals.Remove(ctx, userID, mealID)
}
