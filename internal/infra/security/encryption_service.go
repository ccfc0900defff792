// File: internal/infra/security/encryption_service.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// sealedPrefix marks files written by Seal so plain files can still be read.
var sealedPrefix = []byte("aead1:")

// EncryptionService seals small secrets at rest (the stored host session token)
// with AES-GCM and a random nonce per message.
type EncryptionService struct {
	gcm cipher.AEAD
}

// NewEncryptionService takes a 16, 24 or 32 byte key.
func NewEncryptionService(key string) (*EncryptionService, error) {
	k := []byte(key)
	if n := len(k); n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes; got %d", n)
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &EncryptionService{gcm: gcm}, nil
}

// Seal returns prefix || nonce || ciphertext.
func (e *EncryptionService) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}
	out := append([]byte(nil), sealedPrefix...)
	out = append(out, nonce...)
	return e.gcm.Seal(out, nonce, plain, nil), nil
}

// Open reverses Seal. Input without the sealed prefix is returned unchanged.
func (e *EncryptionService) Open(data []byte) ([]byte, error) {
	if !IsSealed(data) {
		return data, nil
	}
	data = data[len(sealedPrefix):]
	ns := e.gcm.NonceSize()
	if len(data) < ns {
		return nil, errors.New("ciphertext too short")
	}
	pt, err := e.gcm.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("gcm open: %w", err)
	}
	return pt, nil
}

func IsSealed(data []byte) bool {
	return len(data) >= len(sealedPrefix) && string(data[:len(sealedPrefix)]) == string(sealedPrefix)
}
