package crypto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncryptSecret envelope-encrypts a single secret string (e.g. an OpenAI
// API key) into one self-contained, base64-encoded blob suitable for
// storage in a CLI config file or environment variable.
func EncryptSecret(e *Encryptor, plaintext string) (string, error) {
	ed, err := e.Encrypt([]byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypt secret: %w", err)
	}
	raw, err := json.Marshal(ed)
	if err != nil {
		return "", fmt.Errorf("marshal encrypted secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecryptSecret reverses EncryptSecret.
func DecryptSecret(e *Encryptor, blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("decode encrypted secret: %w", err)
	}
	var ed EncryptedData
	if err := json.Unmarshal(raw, &ed); err != nil {
		return "", fmt.Errorf("unmarshal encrypted secret: %w", err)
	}
	plaintext, err := e.Decrypt(&ed)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: %w", err)
	}
	return string(plaintext), nil
}

// ResolveEnvSecret reads a secret from either of two environment
// variables: plainEnv holds it verbatim, encryptedEnv holds an
// EncryptSecret blob decrypted against CHESSMATE_ENCRYPTION_KEY.
// encryptedEnv takes precedence when both are set, so operators can
// migrate a deployment from plaintext to envelope-encrypted secrets
// without touching code. Returns "" with no error when neither is set.
func ResolveEnvSecret(getenv func(string) string, plainEnv, encryptedEnv string) (string, error) {
	if blob := getenv(encryptedEnv); blob != "" {
		e, err := NewEncryptor()
		if err != nil {
			return "", fmt.Errorf("build encryptor for %s: %w", encryptedEnv, err)
		}
		return DecryptSecret(e, blob)
	}
	return getenv(plainEnv), nil
}
