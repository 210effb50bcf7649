package newsletter

import (
	"bytes"
	"errors"
	"html/template"
	"strconv"

	"example.com/recipes-vault/backend/internal/models"
)

// ErrUnknownTemplate означает запрос несуществующего шаблона рассылки.
var ErrUnknownTemplate = errors.New("unknown newsletter template")

type TemplateInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TemplateData - данные для заполнения шаблонов.
type TemplateData struct {
	AppBaseURL     string
	Recipes        []models.Recipe
	UnsubscribeURL string
}

var templateCatalog = []TemplateInfo{
	{Name: "weekly", Title: "Weekly Recipe Roundup", Description: "Your favorite recipes this week"},
	{Name: "featured", Title: "Featured Recipes", Description: "Our top-rated dishes you need to try"},
	{Name: "seasonal", Title: "Seasonal Favorites", Description: "Fresh ingredients, amazing flavors"},
}

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; background: #f4f4f4; }
.container { max-width: 600px; margin: 20px auto; background: white; }
.header { color: white; padding: 40px 20px; text-align: center; }
.content { padding: 30px; }
.recipe-card { margin: 20px 0; padding: 20px; border: 1px solid #ddd; border-radius: 8px; }
.recipe-meta { color: #666; font-size: 14px; }
.button { display: inline-block; padding: 12px 30px; color: white; text-decoration: none; border-radius: 5px; margin: 10px 0; }
</style>
</head>
<body>
<div class="container">{{template "body" .}}</div>
</body>
</html>{{end}}
{{define "card"}}<div class="recipe-card">
<h3>{{.Name}}</h3>
{{with .Description}}<p>{{.}}</p>{{end}}
<p class="recipe-meta">{{minutes .}} min | {{.Servings}} servings{{with .CuisineName}} | {{.}}{{end}}</p>
<a href="{{recipeURL .}}" class="button" style="background:#667eea;">View Recipe</a>
</div>{{end}}`

var templateBodies = map[string]string{
	"weekly": `{{define "body"}}<div class="header" style="background:#667eea;">
<h1>Weekly Recipe Roundup</h1>
<p>Your favorite recipes this week</p>
</div>
<div class="content">
<h2>This Week's Featured Recipes</h2>
<p>Here are some amazing recipes we think you'll love:</p>
{{range .Recipes}}{{template "card" .}}{{else}}<p>New recipes are on their way.</p>{{end}}
<p style="margin-top: 40px;">Happy cooking!</p>
</div>{{end}}`,

	"featured": `{{define "body"}}<div class="header" style="background:#ff6b6b;">
<h1>Featured Recipes</h1>
<p>Our top-rated dishes you need to try</p>
</div>
<div class="content">
<h2>Chef's Picks</h2>
<p>These recipes are favorites among our community:</p>
{{if .Recipes}}<div style="background:#fff9e6;padding:20px;border-left:4px solid #ffd93d;margin:20px 0;">
<h3>Recipe of the Month</h3>
{{template "card" (index .Recipes 0)}}
</div>{{end}}
</div>{{end}}`,

	"seasonal": `{{define "body"}}<div class="header" style="background:#56ab2f;">
<h1>Seasonal Favorites</h1>
<p>Fresh ingredients, amazing flavors</p>
</div>
<div class="content">
<h2>This Season's Best</h2>
<p>Make the most of seasonal ingredients with these delicious recipes:</p>
{{range .Recipes}}{{template "card" .}}{{end}}
<a href="{{.AppBaseURL}}/recipes" class="button" style="background:#56ab2f;">Browse Seasonal Recipes</a>
</div>{{end}}`,

	"welcome": `{{define "body"}}<div class="header" style="background:#667eea;">
<h1>Welcome to RecipesVault Newsletter!</h1>
</div>
<div class="content">
<h2>Thanks for subscribing!</h2>
<p>We're excited to have you join our community of food enthusiasts. You'll now receive:</p>
<ul>
<li>Weekly featured recipes from around the world</li>
<li>Seasonal cooking tips and ingredient spotlights</li>
<li>Quick meal ideas for busy weeknights</li>
<li>New recipe additions to our collection</li>
</ul>
<p>Get started by exploring our recipe collection:</p>
<a href="{{.AppBaseURL}}" class="button" style="background:#667eea;">Browse Recipes</a>
<p style="font-size:12px;color:#666;">You're receiving this because you subscribed to RecipesVault newsletter.
<a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>
</div>{{end}}`,
}

// Templates хранит разобранные шаблоны писем.
type Templates struct {
	appBaseURL string
	sets       map[string]*template.Template
}

// NewTemplates разбирает встроенные шаблоны. Ссылки на рецепты строятся от appBaseURL.
func NewTemplates(appBaseURL string) (*Templates, error) {
	funcs := template.FuncMap{
		"minutes": func(r models.Recipe) int { return r.PrepTime + r.CookTime },
		"recipeURL": func(r models.Recipe) string {
			return appBaseURL + "/recipes/" + strconv.FormatInt(r.ID, 10)
		},
	}

	sets := make(map[string]*template.Template, len(templateBodies))
	for name, body := range templateBodies {
		tmpl, err := template.New(name).Funcs(funcs).Parse(layoutTemplate)
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.Parse(body); err != nil {
			return nil, err
		}
		sets[name] = tmpl
	}

	return &Templates{appBaseURL: appBaseURL, sets: sets}, nil
}

// List возвращает шаблоны, доступные администратору.
func (t *Templates) List() []TemplateInfo {
	out := make([]TemplateInfo, len(templateCatalog))
	copy(out, templateCatalog)
	return out
}

// Render заполняет шаблон рецептами.
func (t *Templates) Render(name string, recipes []models.Recipe) (string, error) {
	if name == "welcome" {
		return "", ErrUnknownTemplate
	}
	return t.render(name, TemplateData{AppBaseURL: t.appBaseURL, Recipes: recipes})
}

func (t *Templates) welcome(unsubscribeURL string) (string, error) {
	return t.render("welcome", TemplateData{AppBaseURL: t.appBaseURL, UnsubscribeURL: unsubscribeURL})
}

func (t *Templates) render(name string, data TemplateData) (string, error) {
	tmpl, ok := t.sets[name]
	if !ok {
		return "", ErrUnknownTemplate
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
