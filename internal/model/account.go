// Package model описывает записи хранилища: зашифрованный Account,
// временный открытый OtpRecord и конверт файла на диске.
package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSecret — секрет пуст, не расшифровывается или непригоден как ключ.
var ErrInvalidSecret = errors.New("invalid secret")

// SecretSealer шифрует открытые секреты.
type SecretSealer interface {
	Encrypt(plain string) (string, error)
}

// SecretOpener расшифровывает блобы секретов.
type SecretOpener interface {
	Decrypt(blob string) (string, error)
}

// Identity — ключ поиска дубликатов аккаунта.
type Identity struct {
	Issuer string
	Label  string
}

func (id Identity) String() string { return id.Issuer + ":" + id.Label }

// Account — запись хранилища. Secret всегда содержит шифртекст.
type Account struct {
	Issuer        string    `json:"issuer"`
	Label         string    `json:"label"`
	Secret        string    `json:"secret"`
	LastUsed      Timestamp `json:"last_used"`
	UsedFrequency int       `json:"used_frequency"`
	Favorite      bool      `json:"favorite"`
	Icon          *string   `json:"icon"`
}

// NewAccount создаёт аккаунт вокруг готового шифртекста. Возвращает
// ErrInvalidSecret, если блоб пуст или не расшифровывается opener.
func NewAccount(issuer, label, secret string, opener SecretOpener, lastUsed time.Time) (Account, error) {
	a := Account{
		Issuer:   issuer,
		Label:    label,
		Secret:   secret,
		LastUsed: NewTimestamp(lastUsed),
	}
	if err := a.Validate(opener); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Validate проверяет, что секрет непуст и opener его расшифровывает.
func (a Account) Validate(opener SecretOpener) error {
	if a.Secret == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSecret)
	}
	if a.UsedFrequency < 0 {
		return fmt.Errorf("negative used_frequency for %s", a.Identity())
	}
	if _, err := opener.Decrypt(a.Secret); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSecret, a.Identity(), err)
	}
	return nil
}

// PlainSecret расшифровывает секрет.
func (a Account) PlainSecret(opener SecretOpener) (string, error) {
	plain, err := opener.Decrypt(a.Secret)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", a.Identity(), err)
	}
	return plain, nil
}

// Identity возвращает ключ (issuer, label).
func (a Account) Identity() Identity {
	return Identity{Issuer: a.Issuer, Label: a.Label}
}

// Equal сравнивает поля; иконки сравниваются по значению.
func (a Account) Equal(b Account) bool {
	if a.Issuer != b.Issuer || a.Label != b.Label || a.Secret != b.Secret ||
		a.UsedFrequency != b.UsedFrequency || a.Favorite != b.Favorite ||
		!a.LastUsed.Equal(b.LastUsed.Time) {
		return false
	}
	switch {
	case a.Icon == nil && b.Icon == nil:
		return true
	case a.Icon == nil || b.Icon == nil:
		return false
	default:
		return *a.Icon == *b.Icon
	}
}

// IconName возвращает подсказку иконки или "".
func (a Account) IconName() string {
	if a.Icon == nil {
		return ""
	}
	return *a.Icon
}
