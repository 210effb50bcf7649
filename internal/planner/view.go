package planner

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"example.com/recipes-vault/backend/internal/models"
)

type CategoryGroup struct {
	CategoryName string                          `json:"category_name"`
	Items        []models.ShoppingListItemDetail `json:"items"`
	CheckedCount int                             `json:"checked_count"`
}

type ShoppingListView struct {
	List         models.ShoppingList `json:"list"`
	Categories   []CategoryGroup     `json:"categories"`
	ItemCount    int                 `json:"item_count"`
	CheckedCount int                 `json:"checked_count"`
}

// GroupByCategory группирует позиции по имени категории.
// Категории упорядочены по алфавиту, позиции внутри категории по имени ингредиента.
func GroupByCategory(items []models.ShoppingListItemDetail) []CategoryGroup {
	index := make(map[string]int)
	groups := make([]CategoryGroup, 0)

	for _, item := range items {
		idx, ok := index[item.CategoryName]
		if !ok {
			idx = len(groups)
			index[item.CategoryName] = idx
			groups = append(groups, CategoryGroup{CategoryName: item.CategoryName})
		}

		groups[idx].Items = append(groups[idx].Items, item)
		if item.IsChecked {
			groups[idx].CheckedCount++
		}
	}

	// collate.Collator не безопасен для конкурентного использования
	names := collate.New(language.English, collate.IgnoreCase)

	sort.SliceStable(groups, func(i, j int) bool {
		return names.CompareString(groups[i].CategoryName, groups[j].CategoryName) < 0
	})

	for g := range groups {
		groupItems := groups[g].Items
		sort.SliceStable(groupItems, func(i, j int) bool {
			if cmp := names.CompareString(groupItems[i].IngredientName, groupItems[j].IngredientName); cmp != 0 {
				return cmp < 0
			}
			if cmp := names.CompareString(groupItems[i].UnitName, groupItems[j].UnitName); cmp != 0 {
				return cmp < 0
			}
			return groupItems[i].ID < groupItems[j].ID
		})
	}

	return groups
}

func buildView(list models.ShoppingList, items []models.ShoppingListItemDetail) ShoppingListView {
	view := ShoppingListView{
		List:       list,
		Categories: GroupByCategory(items),
		ItemCount:  len(items),
	}

	for _, group := range view.Categories {
		view.CheckedCount += group.CheckedCount
	}

	return view
}
