package tokencrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const prefix = "v1:"

var ErrMalformed = errors.New("malformed encrypted token")

// Cipher seals OAuth tokens at rest with XChaCha20-Poly1305. A Cipher built
// from an empty key passes values through unchanged.
type Cipher struct {
	key []byte
}

// New derives a 32-byte key from secret. Secrets that already encode 32 bytes
// as hex or base64 are used as is.
func New(secret string) *Cipher {
	if secret == "" {
		return &Cipher{}
	}
	if raw, err := hex.DecodeString(secret); err == nil && len(raw) == chacha20poly1305.KeySize {
		return &Cipher{key: raw}
	}
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == chacha20poly1305.KeySize {
		return &Cipher{key: raw}
	}
	sum := sha256.Sum256([]byte(secret))
	return &Cipher{key: sum[:]}
}

func (c *Cipher) Enabled() bool {
	return len(c.key) > 0
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if !c.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Values without the version
// prefix are returned unchanged so tokens stored before encryption was
// enabled keep working.
func (c *Cipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	if !c.Enabled() {
		return "", errors.New("token is encrypted but TOKEN_ENCRYPTION_KEY is not set")
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", ErrMalformed
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformed
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return string(plain), nil
}
