package auth

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LoginState - данные, переживающие переход на страницу Google.
type LoginState struct {
	Nonce      string
	ReturnTo   string
	Newsletter bool
}

type stateClaims struct {
	TokenType  TokenType `json:"typ"`
	NonceHash  string    `json:"nh"`
	ReturnTo   string    `json:"ret,omitempty"`
	Newsletter bool      `json:"nl,omitempty"`
	jwt.RegisteredClaims
}

// StateCodec подписывает параметр state для OAuth. Сам nonce хранится в cookie, в state только его хэш.
type StateCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewStateCodec создает кодек состояния с ключом, независимым от ключа сессий.
func NewStateCodec(secret, issuer string, ttl time.Duration) (*StateCodec, error) {
	key, err := deriveKey(secret, "recipes-vault oauth state v1")
	if err != nil {
		return nil, err
	}

	return &StateCodec{secret: key, issuer: issuer, ttl: ttl}, nil
}

// TTL возвращает время жизни состояния.
func (s *StateCodec) TTL() time.Duration {
	return s.ttl
}

// Encode подписывает состояние входа.
func (s *StateCodec) Encode(state LoginState) (string, error) {
	now := time.Now()

	claims := stateClaims{
		TokenType:  TokenTypeState,
		NonceHash:  HashNonce(state.Nonce),
		ReturnTo:   SafeReturnPath(state.ReturnTo),
		Newsletter: state.Newsletter,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Decode проверяет подпись state и совпадение с nonce из cookie.
func (s *StateCodec) Decode(raw, nonce string) (LoginState, error) {
	if raw == "" || nonce == "" {
		return LoginState{}, ErrInvalidState
	}

	claims := &stateClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	token, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return LoginState{}, errors.Join(ErrInvalidState, err)
	}

	if claims.TokenType != TokenTypeState || !CompareNonceHash(claims.NonceHash, nonce) {
		return LoginState{}, ErrInvalidState
	}

	return LoginState{
		Nonce:      nonce,
		ReturnTo:   SafeReturnPath(claims.ReturnTo),
		Newsletter: claims.Newsletter,
	}, nil
}

// SafeReturnPath допускает только относительные пути внутри приложения.
func SafeReturnPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/"
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return "/"
	}

	return raw
}
