package newsletter

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenLength = 32

var emailValidator = validator.New()

// newToken генерирует токен отписки. Токен создается один раз и не меняется при повторной подписке.
func newToken() (string, error) {
	token, err := gonanoid.New(tokenLength)
	if err != nil {
		return "", fmt.Errorf("generate unsubscribe token: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return emailValidator.Var(email, "required,email,max=254") == nil
}
