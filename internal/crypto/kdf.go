// Package crypto выводит ключ хранилища из идентификатора машины и
// обеспечивает аутентифицированное шифрование отдельных секретов.
package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrEmptyIdentifier возвращается, если источник не дал пригодного идентификатора.
var ErrEmptyIdentifier = errors.New("empty machine identifier")

// Key — URL-safe base64 от SHA-256 идентификатора. Выводится один раз
// за процесс и никогда не пишется на диск.
type Key string

// DeriveKey хэширует идентификатор из src в ключ для NewCipher.
func DeriveKey(src IdentifierSource) (Key, error) {
	id, err := src.Identifier()
	if err != nil {
		return "", fmt.Errorf("read machine identifier: %w", err)
	}
	if id == "" {
		return "", ErrEmptyIdentifier
	}
	sum := sha256.Sum256([]byte(id))
	return Key(base64.URLEncoding.EncodeToString(sum[:])), nil
}
