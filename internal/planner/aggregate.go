package planner

import (
	"sort"

	"github.com/shopspring/decimal"

	"example.com/recipes-vault/backend/internal/models"
)

type itemKey struct {
	ingredientID int64
	unitID       int64
}

// Aggregate сворачивает строки ингредиентов запланированных рецептов в позиции списка покупок.
//
// Каждое вхождение рецепта в план учитывается отдельно: рецепт, запланированный N раз,
// дает N-кратное количество. Позиции уникальны по паре (ингредиент, единица), категория
// берется из записи ингредиента. Порядок позиций соответствует первому появлению пары.
// Строки рецептов, которых нет в плане, игнорируются.
func Aggregate(meals []models.PlannedMeal, lines []models.IngredientLine) []models.ShoppingListItem {
	occurrences := make(map[int64]int64, len(meals))
	for _, meal := range meals {
		occurrences[meal.RecipeID]++
	}

	index := make(map[itemKey]int)
	items := make([]models.ShoppingListItem, 0)

	for _, line := range lines {
		count, planned := occurrences[line.RecipeID]
		if !planned {
			continue
		}

		amount := line.Quantity.Mul(decimal.NewFromInt(count))
		key := itemKey{ingredientID: line.IngredientID, unitID: line.UnitID}

		if idx, ok := index[key]; ok {
			items[idx].TotalQuantity = items[idx].TotalQuantity.Add(amount)
			continue
		}

		index[key] = len(items)
		items = append(items, models.ShoppingListItem{
			IngredientID:  line.IngredientID,
			UnitID:        line.UnitID,
			CategoryID:    line.CategoryID,
			TotalQuantity: amount,
		})
	}

	return items
}

// distinctRecipeIDs возвращает отсортированный набор рецептов плана.
func distinctRecipeIDs(meals []models.PlannedMeal) []int64 {
	seen := make(map[int64]struct{}, len(meals))
	ids := make([]int64, 0, len(meals))

	for _, meal := range meals {
		if _, ok := seen[meal.RecipeID]; ok {
			continue
		}
		seen[meal.RecipeID] = struct{}{}
		ids = append(ids, meal.RecipeID)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
