package server

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"

	"example.com/recipes-vault/backend/internal/handlers"
)

// TestValidatorUsesJSONFieldNames проверяет имена полей в ошибках валидации.
func TestValidatorUsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&handlers.GenerateShoppingListRequest{StartDate: "2025-01-06"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected validation errors, got %T", err)
	}
	if len(fieldErrs) != 1 || fieldErrs[0].Field() != "end_date" {
		t.Fatalf("unexpected field errors: %v", fieldErrs)
	}
}

// TestValidatorAcceptsValidRequest проверяет корректный запрос.
func TestValidatorAcceptsValidRequest(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&handlers.SubscribeRequest{Email: "fan@example.com"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := v.Validate(&handlers.SubscribeRequest{Email: "fan"}); err == nil {
		t.Fatal("expected error for invalid email")
	}
}
