package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStateRoundTrip проверяет подпись и разбор состояния входа.
func TestStateRoundTrip(t *testing.T) {
	codec, err := NewStateCodec(testSecret, "recipes-vault", time.Minute)
	require.NoError(t, err)

	nonce, err := NewNonce()
	require.NoError(t, err)

	raw, err := codec.Encode(LoginState{Nonce: nonce, ReturnTo: "/meal-plan?week=2024-01-01", Newsletter: true})
	require.NoError(t, err)
	assert.NotContains(t, raw, nonce)

	state, err := codec.Decode(raw, nonce)
	require.NoError(t, err)
	assert.Equal(t, "/meal-plan?week=2024-01-01", state.ReturnTo)
	assert.True(t, state.Newsletter)
}

// TestStateRejectsMismatchedNonce проверяет отказ при чужой cookie.
func TestStateRejectsMismatchedNonce(t *testing.T) {
	codec, err := NewStateCodec(testSecret, "recipes-vault", time.Minute)
	require.NoError(t, err)

	raw, err := codec.Encode(LoginState{Nonce: "expected"})
	require.NoError(t, err)

	_, err = codec.Decode(raw, "other")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = codec.Decode(raw, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = codec.Decode("tampered."+raw, "expected")
	assert.True(t, errors.Is(err, ErrInvalidState))
}

// TestStateExpires проверяет срок жизни состояния.
func TestStateExpires(t *testing.T) {
	codec, err := NewStateCodec(testSecret, "recipes-vault", -time.Second)
	require.NoError(t, err)

	raw, err := codec.Encode(LoginState{Nonce: "n"})
	require.NoError(t, err)

	_, err = codec.Decode(raw, "n")
	assert.ErrorIs(t, err, ErrInvalidState)
}

// TestSafeReturnPath проверяет отбрасывание внешних адресов возврата.
func TestSafeReturnPath(t *testing.T) {
	cases := map[string]string{
		"":                         "/",
		"/recipes/5":               "/recipes/5",
		"https://evil.example":     "/",
		"//evil.example/path":      "/",
		"/\\evil.example":          "/",
		"recipes":                  "/",
		"/shopping-lists?id=3#top": "/shopping-lists?id=3#top",
	}

	for input, want := range cases {
		assert.Equal(t, want, SafeReturnPath(input), input)
	}
}

// TestNonceHash проверяет сравнение хэша nonce.
func TestNonceHash(t *testing.T) {
	hash := HashNonce("value")
	assert.True(t, CompareNonceHash(hash, "value"))
	assert.False(t, CompareNonceHash(hash, "other"))
}
