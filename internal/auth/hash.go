package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewNonce генерирует одноразовое значение для защиты входа через Google.
func NewNonce() (string, error) {
	nonce, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, nil
}

// HashNonce возвращает SHA-256 хэш значения в hex-представлении.
func HashNonce(nonce string) string {
	sum := sha256.Sum256([]byte(nonce))
	return hex.EncodeToString(sum[:])
}

// CompareNonceHash сравнивает хэш со значением в константное время.
func CompareNonceHash(hash, nonce string) bool {
	computed := HashNonce(nonce)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(computed)) == 1
}
