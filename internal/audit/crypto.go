package audit

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// payloadCipher seals audit detail payloads with AES-256-GCM. A nil gcm
// means encryption is disabled and payloads pass through untouched.
type payloadCipher struct {
	gcm cipher.AEAD
}

func newPayloadCipher(keyHex string) (*payloadCipher, error) {
	if keyHex == "" {
		return &payloadCipher{}, nil
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("audit: decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("audit: encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("audit: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("audit: init gcm: %w", err)
	}
	return &payloadCipher{gcm: gcm}, nil
}

// seal returns nonce||ciphertext.
func (c *payloadCipher) seal(plain []byte) ([]byte, error) {
	if c.gcm == nil {
		return plain, nil
	}
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.gcm.Seal(nonce, nonce, plain, nil), nil
}

func (c *payloadCipher) open(sealed []byte) ([]byte, error) {
	if c.gcm == nil {
		return sealed, nil
	}
	ns := c.gcm.NonceSize()
	if len(sealed) < ns {
		return nil, fmt.Errorf("audit: sealed payload too short")
	}
	return c.gcm.Open(nil, sealed[:ns], sealed[ns:], nil)
}
