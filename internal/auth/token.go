package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"example.com/recipes-vault/backend/internal/models"
)

type TokenType string

const (
	TokenTypeSession TokenType = "session"
	TokenTypeState   TokenType = "state"
)

// ErrInvalidState означает поддельное, просроченное или чужое состояние OAuth.
var ErrInvalidState = errors.New("invalid oauth state")

// SessionClaims - содержимое сессионного токена. Subject хранит Google ID пользователя.
type SessionClaims struct {
	TokenType TokenType `json:"typ"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Admin     bool      `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// GoogleID возвращает стабильный идентификатор пользователя из токена.
func (c *SessionClaims) GoogleID() string {
	return c.Subject
}

type SessionManager struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	cookieName string
	secure     bool
}

type SessionConfig struct {
	Secret       string
	Issuer       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// NewSessionManager инициализирует менеджер сессий. Ключ подписи выводится из секрета через HKDF.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	key, err := deriveKey(cfg.Secret, "recipes-vault session v1")
	if err != nil {
		return nil, err
	}

	return &SessionManager{
		secret:     key,
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		secure:     cfg.CookieSecure,
	}, nil
}

// Issue выпускает сессионный токен для пользователя.
func (m *SessionManager) Issue(user models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)

	claims := SessionClaims{
		TokenType: TokenTypeSession,
		Email:     user.Email,
		Name:      user.Name(),
		Admin:     user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.GoogleID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Parse валидирует сессионный токен и возвращает claims.
func (m *SessionManager) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token is invalid")
	}

	if claims.TokenType != TokenTypeSession {
		return nil, errors.New("token type mismatch")
	}

	if claims.Subject == "" {
		return nil, errors.New("token subject is missing")
	}

	return claims, nil
}

// Cookie возвращает HttpOnly cookie с сессионным токеном.
func (m *SessionManager) Cookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie возвращает cookie, удаляющую сессию в браузере.
func (m *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieName возвращает имя сессионной cookie.
func (m *SessionManager) CookieName() string {
	return m.cookieName
}
