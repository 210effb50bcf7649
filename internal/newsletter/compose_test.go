package newsletter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/recipes-vault/backend/internal/models"
)

// TestSanitizeKeepsStyles проверяет, что очистка не трогает оформление письма.
func TestSanitizeKeepsStyles(t *testing.T) {
	out, err := Sanitize(`<html><head><style>.a{color:red}</style></head><body><p class="a" onmouseover="x()">Hi</p><iframe src="https://evil"></iframe></body></html>`)
	require.NoError(t, err)

	assert.Contains(t, out, "<style>")
	assert.Contains(t, out, `class="a"`)
	assert.NotContains(t, out, "onmouseover")
	assert.NotContains(t, out, "iframe")
}

// TestSanitizeAllowsImageOnly проверяет, что письмо из одной картинки не считается пустым.
func TestSanitizeAllowsImageOnly(t *testing.T) {
	_, err := Sanitize(`<img src="https://recipes.test/banner.png">`)
	assert.NoError(t, err)

	_, err = Sanitize("")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

// TestUnsubscribeURL проверяет формат ссылки отписки.
func TestUnsubscribeURL(t *testing.T) {
	assert.Equal(t, "https://recipes.test/newsletter/unsubscribe?token=abc_-1", UnsubscribeURL("https://recipes.test", "abc_-1"))
}

// TestTemplatesRender проверяет заполнение шаблонов рецептами.
func TestTemplatesRender(t *testing.T) {
	templates, err := NewTemplates("https://recipes.test")
	require.NoError(t, err)

	names := make([]string, 0)
	for _, info := range templates.List() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"weekly", "featured", "seasonal"}, names)

	description := "Creamy <risotto>"
	recipes := []models.Recipe{
		{ID: 5, Name: "Mushroom Risotto", Description: &description, PrepTime: 10, CookTime: 30, Servings: 4, CuisineName: "Italian"},
	}

	for _, name := range names {
		out, err := templates.Render(name, recipes)
		require.NoError(t, err, name)
		assert.Contains(t, out, "Mushroom Risotto", name)
	}

	out, err := templates.Render("weekly", recipes)
	require.NoError(t, err)
	assert.Contains(t, out, "https://recipes.test/recipes/5")
	assert.Contains(t, out, "40 min")
	assert.Contains(t, out, "Creamy &lt;risotto&gt;")

	_, err = templates.Render("welcome", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	_, err = templates.Render("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}
