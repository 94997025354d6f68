package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret_RoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	e, err := NewEncryptorWithKey(key)
	require.NoError(t, err)

	blob, err := EncryptSecret(e, "sk-test-key-12345")
	require.NoError(t, err)
	assert.NotContains(t, blob, "sk-test-key-12345")

	plaintext, err := DecryptSecret(e, blob)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key-12345", plaintext)
}

func TestDecryptSecret_BadBlob(t *testing.T) {
	key := make([]byte, KeySize)
	e, err := NewEncryptorWithKey(key)
	require.NoError(t, err)

	_, err = DecryptSecret(e, "not-valid-base64!!!")
	assert.Error(t, err)
}

func TestResolveEnvSecret_PlainFallback(t *testing.T) {
	env := map[string]string{"API_KEY": "sk-plain-value"}
	got, err := ResolveEnvSecret(func(k string) string { return env[k] }, "API_KEY", "API_KEY_ENCRYPTED")
	require.NoError(t, err)
	assert.Equal(t, "sk-plain-value", got)
}

func TestResolveEnvSecret_Unset(t *testing.T) {
	got, err := ResolveEnvSecret(func(string) string { return "" }, "API_KEY", "API_KEY_ENCRYPTED")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestResolveEnvSecret_EncryptedTakesPrecedence(t *testing.T) {
	t.Setenv("CHESSMATE_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	e, err := NewEncryptor()
	require.NoError(t, err)

	blob, err := EncryptSecret(e, "sk-encrypted-value")
	require.NoError(t, err)

	env := map[string]string{
		"API_KEY":           "sk-plain-value",
		"API_KEY_ENCRYPTED": blob,
	}
	got, err := ResolveEnvSecret(func(k string) string { return env[k] }, "API_KEY", "API_KEY_ENCRYPTED")
	require.NoError(t, err)
	assert.Equal(t, "sk-encrypted-value", got)
}
