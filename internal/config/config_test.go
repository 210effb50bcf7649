package config

import (
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestParseCSVEnv проверяет разбор списка email из ENV.
func TestParseCSVEnv(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Admin@example.com, ,USER@Example.com ")

	got := parseCSVEnv("ADMIN_EMAILS")
	want := []string{"admin@example.com", "user@example.com"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestParseCSVEnvMissing проверяет поведение при отсутствии переменной.
func TestParseCSVEnvMissing(t *testing.T) {
	got := parseCSVEnv("MISSING_ENV")
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

// TestLoadDefaults проверяет значения по умолчанию при минимальном окружении.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Auth.SessionTTL != 30*24*time.Hour {
		t.Fatalf("unexpected session ttl: %s", cfg.Auth.SessionTTL)
	}
	if cfg.Database.WarmupInterval != 4*time.Minute {
		t.Fatalf("unexpected warmup interval: %s", cfg.Database.WarmupInterval)
	}
	if !cfg.Database.AutoMigrate {
		t.Fatal("expected auto migrate by default")
	}
	if cfg.Newsletter.SenderName != "RecipesVault" {
		t.Fatalf("unexpected sender name: %s", cfg.Newsletter.SenderName)
	}
	if cfg.Newsletter.AppBaseURL != "https://recipesvault.org" {
		t.Fatalf("unexpected base url: %s", cfg.Newsletter.AppBaseURL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected log level: %v", cfg.LogLevel)
	}
}

// TestLoadRequiresSessionSecret проверяет обязательность секрета сессии.
func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SESSION_SECRET")
	}
}

// TestLoadRejectsShortSecret проверяет минимальную длину секрета.
func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short SESSION_SECRET")
	}
}

// TestParseBoolEnv проверяет разбор булевых флагов.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("FLAG_ON", "true")
	t.Setenv("FLAG_BAD", "maybe")

	if got, err := parseBoolEnv("FLAG_ON", false); err != nil || !got {
		t.Fatalf("expected true, got %v (%v)", got, err)
	}
	if got, err := parseBoolEnv("FLAG_MISSING", true); err != nil || !got {
		t.Fatalf("expected fallback true, got %v (%v)", got, err)
	}
	if _, err := parseBoolEnv("FLAG_BAD", false); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

// TestParseLevelEnv проверяет разбор уровня логирования.
func TestParseLevelEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	level, err := parseLevelEnv("LOG_LEVEL", slog.LevelInfo)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if level != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", level)
	}
}

// TestMigrationURL проверяет схему адреса для миграций.
func TestMigrationURL(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "recipes", SSLMode: "disable"}

	if got := cfg.MigrationURL(); got != "pgx5://u:p@db:5432/recipes?sslmode=disable" {
		t.Fatalf("unexpected migration url: %s", got)
	}
	if got := cfg.DSN(); !strings.HasPrefix(got, "postgres://") {
		t.Fatalf("unexpected dsn: %s", got)
	}
}
