package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// Identity - проверенные данные пользователя Google.
type Identity struct {
	Subject       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// IdentityProvider проводит вход через внешнего провайдера.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

type tokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleProvider реализует authorization code flow Google с проверкой id_token.
type GoogleProvider struct {
	config   *oauth2.Config
	validate tokenValidator
}

// NewGoogleProvider создает провайдера Google по данным OAuth клиента.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		validate: idtoken.Validate,
	}
}

// AuthCodeURL возвращает адрес страницы согласия Google.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange обменивает код на токены и проверяет id_token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	if strings.TrimSpace(p.config.ClientID) == "" {
		return Identity{}, errors.New("google client id is missing")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Identity{}, errors.New("google response missing id_token")
	}

	return p.verify(ctx, rawIDToken)
}

func (p *GoogleProvider) verify(ctx context.Context, rawIDToken string) (Identity, error) {
	payload, err := p.validate(ctx, rawIDToken, p.config.ClientID)
	if err != nil {
		return Identity{}, fmt.Errorf("validate id_token: %w", err)
	}

	return identityFromPayload(payload)
}

func identityFromPayload(payload *idtoken.Payload) (Identity, error) {
	identity := Identity{
		Subject:       payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
	}

	if identity.Subject == "" {
		return Identity{}, errors.New("id_token subject is missing")
	}

	if identity.Email == "" || !identity.EmailVerified {
		return Identity{}, errors.New("google account email is not verified")
	}

	identity.Email = strings.ToLower(identity.Email)
	return identity, nil
}

func claimString(claims map[string]interface{}, key string) string {
	value, _ := claims[key].(string)
	return strings.TrimSpace(value)
}

func claimBool(claims map[string]interface{}, key string) bool {
	switch value := claims[key].(type) {
	case bool:
		return value
	case string:
		return value == "true"
	default:
		return false
	}
}
