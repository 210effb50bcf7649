package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"example.com/recipes-vault/backend/internal/auth"
	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	return e
}

func newRequestContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withUser(c echo.Context, user models.User) {
	c.Set(auth.ContextUserIDKey, user.ID)
	c.Set(auth.ContextUserKey, user)
}

func withParam(c echo.Context, name, value string) {
	c.SetParamNames(name)
	c.SetParamValues(value)
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

// plannerStore хранит план питания и списки покупок в памяти.
type plannerStore struct {
	mu sync.Mutex

	meals       []models.PlannedMeal
	lines       []models.IngredientLine
	ingredients map[int64]string
	units       map[int64]string
	categories  map[int64]string

	lists     map[int64]models.ShoppingList
	items     map[int64]models.ShoppingListItem
	nextID    int64
	createErr error
}

func newPlannerStore() *plannerStore {
	return &plannerStore{
		ingredients: map[int64]string{1: "Flour", 2: "Milk", 3: "Tomato"},
		units:       map[int64]string{1: "g", 2: "l", 3: "pcs"},
		categories:  map[int64]string{10: "Pantry", 20: "Dairy & Eggs", 30: "Produce"},
		lists:       make(map[int64]models.ShoppingList),
		items:       make(map[int64]models.ShoppingListItem),
	}
}

func (s *plannerStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *plannerStore) plan(userID, recipeID int64, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meals = append(s.meals, models.PlannedMeal{ID: s.id(), UserID: userID, RecipeID: recipeID, PlannedDate: day(date)})
}

func (s *plannerStore) ListInRange(_ context.Context, userID int64, start, end time.Time) ([]models.PlannedMeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PlannedMeal, 0)
	for _, meal := range s.meals {
		if meal.UserID == userID && !meal.PlannedDate.Before(start) && !meal.PlannedDate.After(end) {
			out = append(out, meal)
		}
	}
	return out, nil
}

func (s *plannerStore) ListDetailedInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.PlannedMealDetail, error) {
	meals, _ := s.ListInRange(ctx, userID, start, end)
	out := make([]models.PlannedMealDetail, 0, len(meals))
	for _, meal := range meals {
		out = append(out, models.PlannedMealDetail{PlannedMeal: meal, RecipeName: "Recipe"})
	}
	return out, nil
}

func (s *plannerStore) Add(_ context.Context, userID, recipeID int64, date time.Time) (models.PlannedMeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if recipeID > 100 {
		return models.PlannedMeal{}, repository.ErrNotFound
	}

	meal := models.PlannedMeal{ID: s.id(), UserID: userID, RecipeID: recipeID, PlannedDate: date}
	s.meals = append(s.meals, meal)
	return meal, nil
}

func (s *plannerStore) Remove(_ context.Context, userID, mealID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, meal := range s.meals {
		if meal.ID == mealID && meal.UserID == userID {
			s.meals = append(s.meals[:i], s.meals[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *plannerStore) ListIngredientLines(_ context.Context, recipeIDs []int64) ([]models.IngredientLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]struct{}, len(recipeIDs))
	for _, id := range recipeIDs {
		wanted[id] = struct{}{}
	}

	out := make([]models.IngredientLine, 0)
	for _, line := range s.lines {
		if _, ok := wanted[line.RecipeID]; ok {
			out = append(out, line)
		}
	}
	return out, nil
}

func (s *plannerStore) CreateWithItems(_ context.Context, list models.ShoppingList, items []models.ShoppingListItem) (models.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return models.ShoppingList{}, s.createErr
	}

	list.ID = s.id()
	list.DateCreated = time.Now().UTC()
	s.lists[list.ID] = list

	for _, item := range items {
		item.ID = s.id()
		item.ShoppingListID = list.ID
		s.items[item.ID] = item
	}
	return list, nil
}

func (s *plannerStore) GetByID(_ context.Context, userID, listID int64) (models.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[listID]
	if !ok || list.UserID != userID {
		return models.ShoppingList{}, repository.ErrNotFound
	}
	return list, nil
}

func (s *plannerStore) ListItems(_ context.Context, listID int64) ([]models.ShoppingListItemDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ShoppingListItemDetail, 0)
	for _, item := range s.items {
		if item.ShoppingListID != listID {
			continue
		}
		out = append(out, models.ShoppingListItemDetail{
			ShoppingListItem: item,
			IngredientName:   s.ingredients[item.IngredientID],
			UnitName:         s.units[item.UnitID],
			CategoryName:     s.categories[item.CategoryID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *plannerStore) ListByUser(_ context.Context, userID int64) ([]models.ShoppingListSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ShoppingListSummary, 0)
	for _, list := range s.lists {
		if list.UserID == userID {
			out = append(out, models.ShoppingListSummary{ShoppingList: list})
		}
	}
	return out, nil
}

func (s *plannerStore) Delete(_ context.Context, userID, listID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[listID]
	if !ok || list.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.lists, listID)
	for id, item := range s.items {
		if item.ShoppingListID == listID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *plannerStore) SetCompleted(_ context.Context, userID, listID int64, completed bool) (models.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[listID]
	if !ok || list.UserID != userID {
		return models.ShoppingList{}, repository.ErrNotFound
	}
	list.IsCompleted = completed
	s.lists[listID] = list
	return list, nil
}

func (s *plannerStore) ToggleItem(_ context.Context, userID, itemID int64) (models.ShoppingListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || s.lists[item.ShoppingListID].UserID != userID {
		return models.ShoppingListItem{}, repository.ErrNotFound
	}
	item.IsChecked = !item.IsChecked
	s.items[itemID] = item
	return item, nil
}

// fakeProvider подменяет Google OAuth.
type fakeProvider struct {
	identity auth.Identity
	err      error
	codes    []string
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (auth.Identity, error) {
	p.codes = append(p.codes, code)
	if p.err != nil {
		return auth.Identity{}, p.err
	}
	return p.identity, nil
}

type fakeAccounts struct {
	users  map[string]models.User
	inputs []repository.GoogleUserInput
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: make(map[string]models.User)}
}

func (a *fakeAccounts) UpsertFromGoogle(_ context.Context, input repository.GoogleUserInput) (models.User, bool, error) {
	a.inputs = append(a.inputs, input)

	user, ok := a.users[input.GoogleID]
	if !ok {
		user = models.User{
			ID:          int64(len(a.users) + 1),
			GoogleID:    input.GoogleID,
			Email:       input.Email,
			DisplayName: input.DisplayName,
			IsActive:    true,
		}
	}
	if input.NewsletterOptIn {
		user.IsNewsletterSubscribed = true
	}
	a.users[input.GoogleID] = user
	return user, !ok, nil
}

func (a *fakeAccounts) SetNewsletterSubscribed(_ context.Context, userID int64, subscribed bool) (models.User, error) {
	for key, user := range a.users {
		if user.ID == userID {
			user.IsNewsletterSubscribed = subscribed
			a.users[key] = user
			return user, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

type syncCall struct {
	userID    int64
	subscribe bool
}

type fakeSyncer struct {
	calls []syncCall
	err   error
}

func (s *fakeSyncer) Sync(_ context.Context, user models.User, subscribe bool) error {
	s.calls = append(s.calls, syncCall{userID: user.ID, subscribe: subscribe})
	return s.err
}

// fakeSubscriptions подменяет сервис рассылки для публичных эндпоинтов.
type fakeSubscriptions struct {
	active map[string]bool
	tokens map[string]string
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{active: make(map[string]bool), tokens: make(map[string]string)}
}

func (s *fakeSubscriptions) Subscribe(_ context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.active[email] {
		return false, nil
	}
	s.active[email] = true
	s.tokens["tok-"+email] = email
	return true, nil
}

func (s *fakeSubscriptions) Unsubscribe(_ context.Context, token string) (models.NewsletterSubscriber, error) {
	email, ok := s.tokens[token]
	if !ok {
		return models.NewsletterSubscriber{}, repository.ErrNotFound
	}
	s.active[email] = false
	return models.NewsletterSubscriber{Email: email}, nil
}

func (s *fakeSubscriptions) Status(_ context.Context, email string) (bool, error) {
	return s.active[strings.ToLower(email)], nil
}
