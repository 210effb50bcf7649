package planner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

type memoryStore struct {
	mu sync.Mutex

	meals       []models.PlannedMeal
	recipes     map[int64][]models.IngredientLine
	categories  map[int64]string
	ingredients map[int64]string
	units       map[int64]string

	lists  map[int64]models.ShoppingList
	items  map[int64]models.ShoppingListItem
	nextID int64

	failCreate error
	createCall int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		recipes:     make(map[int64][]models.IngredientLine),
		categories:  make(map[int64]string),
		ingredients: make(map[int64]string),
		units:       make(map[int64]string),
		lists:       make(map[int64]models.ShoppingList),
		items:       make(map[int64]models.ShoppingListItem),
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) plan(userID, recipeID int64, date time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meals = append(m.meals, models.PlannedMeal{ID: m.id(), UserID: userID, RecipeID: recipeID, PlannedDate: Day(date)})
}

func (m *memoryStore) ListInRange(_ context.Context, userID int64, start, end time.Time) ([]models.PlannedMeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.PlannedMeal, 0)
	for _, meal := range m.meals {
		if meal.UserID == userID && !meal.PlannedDate.Before(start) && !meal.PlannedDate.After(end) {
			out = append(out, meal)
		}
	}
	return out, nil
}

func (m *memoryStore) ListDetailedInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.PlannedMealDetail, error) {
	meals, _ := m.ListInRange(ctx, userID, start, end)
	out := make([]models.PlannedMealDetail, 0, len(meals))
	for _, meal := range meals {
		out = append(out, models.PlannedMealDetail{PlannedMeal: meal})
	}
	return out, nil
}

func (m *memoryStore) Add(_ context.Context, userID, recipeID int64, date time.Time) (models.PlannedMeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[recipeID]; !ok {
		return models.PlannedMeal{}, repository.ErrNotFound
	}
	meal := models.PlannedMeal{ID: m.id(), UserID: userID, RecipeID: recipeID, PlannedDate: date}
	m.meals = append(m.meals, meal)
	return meal, nil
}

func (m *memoryStore) Remove(_ context.Context, userID, mealID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, meal := range m.meals {
		if meal.ID == mealID && meal.UserID == userID {
			m.meals = append(m.meals[:i], m.meals[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memoryStore) ListIngredientLines(_ context.Context, recipeIDs []int64) ([]models.IngredientLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.IngredientLine, 0)
	for _, id := range recipeIDs {
		out = append(out, m.recipes[id]...)
	}
	return out, nil
}

func (m *memoryStore) CreateWithItems(_ context.Context, list models.ShoppingList, items []models.ShoppingListItem) (models.ShoppingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCall++
	if m.failCreate != nil {
		return models.ShoppingList{}, m.failCreate
	}

	seen := make(map[itemKey]struct{})
	for _, item := range items {
		key := itemKey{ingredientID: item.IngredientID, unitID: item.UnitID}
		if _, dup := seen[key]; dup {
			return models.ShoppingList{}, repository.ErrConflict
		}
		seen[key] = struct{}{}
	}

	list.ID = m.id()
	list.DateCreated = time.Now()
	m.lists[list.ID] = list
	for _, item := range items {
		item.ID = m.id()
		item.ShoppingListID = list.ID
		m.items[item.ID] = item
	}
	return list, nil
}

func (m *memoryStore) GetByID(_ context.Context, userID, listID int64) (models.ShoppingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.lists[listID]
	if !ok || list.UserID != userID {
		return models.ShoppingList{}, repository.ErrNotFound
	}
	return list, nil
}

func (m *memoryStore) ListItems(_ context.Context, listID int64) ([]models.ShoppingListItemDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ShoppingListItemDetail, 0)
	for _, item := range m.items {
		if item.ShoppingListID != listID {
			continue
		}
		out = append(out, models.ShoppingListItemDetail{
			ShoppingListItem: item,
			IngredientName:   m.ingredients[item.IngredientID],
			UnitName:         m.units[item.UnitID],
			CategoryName:     m.categories[item.CategoryID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) ListByUser(_ context.Context, userID int64) ([]models.ShoppingListSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ShoppingListSummary, 0)
	for _, list := range m.lists {
		if list.UserID == userID {
			out = append(out, models.ShoppingListSummary{ShoppingList: list})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, userID, listID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.lists[listID]
	if !ok || list.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.lists, listID)
	for id, item := range m.items {
		if item.ShoppingListID == listID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *memoryStore) SetCompleted(_ context.Context, userID, listID int64, completed bool) (models.ShoppingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.lists[listID]
	if !ok || list.UserID != userID {
		return models.ShoppingList{}, repository.ErrNotFound
	}
	list.IsCompleted = completed
	m.lists[listID] = list
	return list, nil
}

func (m *memoryStore) ToggleItem(_ context.Context, userID, itemID int64) (models.ShoppingListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return models.ShoppingListItem{}, repository.ErrNotFound
	}
	if list := m.lists[item.ShoppingListID]; list.UserID != userID {
		return models.ShoppingListItem{}, repository.ErrNotFound
	}
	item.IsChecked = !item.IsChecked
	m.items[itemID] = item
	return item, nil
}

type countingRecorder struct {
	lists int
	items int
}

func (r *countingRecorder) ShoppingListGenerated(items int) {
	r.lists++
	r.items += items
}

var errStoreDown = errors.New("store down")
