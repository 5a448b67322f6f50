package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	blobVersion byte = 0x01
	hkdfInfo         = "otpkeeper/secret/v1"
)

var (
	// ErrInvalidToken — блоб не прошёл аутентификацию (чужой ключ, подмена, обрезка).
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidKey — текст ключа не является 32 байтами в URL-safe base64.
	ErrInvalidKey = errors.New("invalid key")
)

// Cipher шифрует секреты в самоописывающие URL-safe блобы:
// base64url(version || nonce || ciphertext || tag). Байт версии
// аутентифицируется как associated data.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher создаёт шифр XChaCha20-Poly1305 из текста выведенного ключа.
func NewCipher(key Key) (*Cipher, error) {
	raw, err := base64.URLEncoding.DecodeString(string(key))
	if err != nil || len(raw) != sha256.Size {
		return nil, ErrInvalidKey
	}
	defer wipe(raw)

	k := make([]byte, chacha20poly1305.KeySize)
	defer wipe(k)
	if _, err := io.ReadFull(hkdf.New(sha256.New, raw, nil, []byte(hkdfInfo)), k); err != nil {
		return nil, fmt.Errorf("expand key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt шифрует plain со свежим случайным nonce.
func (c *Cipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := make([]byte, 0, 1+len(nonce)+len(plain)+c.aead.Overhead())
	out = append(out, blobVersion)
	out = append(out, nonce...)
	out = c.aead.Seal(out, nonce, []byte(plain), []byte{blobVersion})
	return base64.URLEncoding.EncodeToString(out), nil
}

// Decrypt расшифровывает блоб, созданный Encrypt тем же ключом.
func (c *Cipher) Decrypt(blob string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrInvalidToken
	}
	ns := c.aead.NonceSize()
	if len(raw) < 1+ns+c.aead.Overhead() || raw[0] != blobVersion {
		return "", ErrInvalidToken
	}
	plain, err := c.aead.Open(nil, raw[1:1+ns], raw[1+ns:], raw[:1])
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(plain), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
