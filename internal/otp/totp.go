package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"

	"OTPKeeper/internal/model"
)

const (
	// Period — шаг TOTP в секундах.
	Period = 30
	// Digits — длина кода.
	Digits = 6
)

// ErrNegativeTime возвращается для моментов раньше эпохи Unix.
var ErrNegativeTime = errors.New("time before unix epoch")

// GenerateCode возвращает шестизначный код (с ведущими нулями) для секрета
// в момент unix (секунды).
func GenerateCode(secret string, unix int64) (string, error) {
	if unix < 0 {
		return "", ErrNegativeTime
	}
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	defer zero(key)
	return hotp(key, uint64(unix/Period)), nil
}

// GenerateCodeForAccount расшифровывает секрет аккаунта и вычисляет код.
func GenerateCodeForAccount(a model.Account, opener model.SecretOpener, unix int64) (string, error) {
	plain, err := a.PlainSecret(opener)
	if err != nil {
		return "", err
	}
	return GenerateCode(plain, unix)
}

// SecondsRemaining — сколько секунд ещё действует код, актуальный в момент unix.
func SecondsRemaining(unix int64) int {
	return Period - int(unix%Period)
}

func hotp(key []byte, counter uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0F
	trunc := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7FFFFFFF
	return fmt.Sprintf("%0*d", Digits, trunc%1000000)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
