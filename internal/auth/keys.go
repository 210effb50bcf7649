package auth

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// deriveKey выводит независимый ключ подписи для назначения info.
func deriveKey(secret, info string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("auth secret is empty")
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, err
	}

	return key, nil
}
