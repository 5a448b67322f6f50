// Package otp разбирает и формирует otpauth:// URI, проверяет base32-секреты
// и вычисляет шестизначные TOTP-коды (RFC 6238, HMAC-SHA1, шаг 30 секунд).
package otp

import (
	"encoding/base32"
	"errors"
	"strings"
)

// maxPadding — сколько завершающих '=' допускается в секрете.
const maxPadding = 2

var (
	// ErrInvalidSecretKey возвращается для секретов, непригодных как TOTP-ключ.
	ErrInvalidSecretKey = errors.New("invalid secret key")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// NormalizeSecret переводит секрет в верхний регистр и срезает выравнивание.
func NormalizeSecret(s string) string {
	return strings.TrimRight(strings.ToUpper(s), "=")
}

// DecodeSecret декодирует base32-секрет (RFC 4648) без учёта регистра.
// Допустимы только символы A-Z и 2-7; результат не пустой и не из одних нулей.
func DecodeSecret(s string) ([]byte, error) {
	norm := NormalizeSecret(s)
	if len(s)-len(norm) > maxPadding {
		return nil, ErrInvalidSecretKey
	}
	if norm == "" || !isBase32(norm) {
		return nil, ErrInvalidSecretKey
	}
	key, err := b32.DecodeString(norm)
	if err != nil {
		return nil, ErrInvalidSecretKey
	}
	for _, c := range key {
		if c != 0 {
			return key, nil
		}
	}
	return nil, ErrInvalidSecretKey
}

// IsValidSecretKey сообщает, декодируется ли s в пригодный ключ.
func IsValidSecretKey(s string) bool {
	_, err := DecodeSecret(s)
	return err == nil
}

// isBase32 проверяет алфавит: base32-декодер сам пропускает \r и \n.
func isBase32(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '2' || c > '7') {
			return false
		}
	}
	return true
}
