package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyField — в записи нет issuer, label или secret.
var ErrEmptyField = errors.New("issuer, label and secret are required")

// OtpRecord — неизменяемая открытая заготовка будущего Account.
// Открытый текст попадает в хранилище только через Seal.
type OtpRecord struct {
	issuer string
	label  string
	secret string
}

// NewOtpRecord создаёт открытую заготовку.
func NewOtpRecord(issuer, label, secret string) OtpRecord {
	return OtpRecord{issuer: issuer, label: label, secret: secret}
}

func (r OtpRecord) Issuer() string { return r.issuer }
func (r OtpRecord) Label() string  { return r.label }
func (r OtpRecord) Secret() string { return r.secret }

// Identity возвращает ключ (issuer, label).
func (r OtpRecord) Identity() Identity {
	return Identity{Issuer: r.issuer, Label: r.label}
}

// String никогда не выводит секрет.
func (r OtpRecord) String() string {
	return fmt.Sprintf("OtpRecord(%s, %s, ***)", r.issuer, r.label)
}

// GoString не даёт %#v раскрыть секрет.
func (r OtpRecord) GoString() string { return r.String() }

// Seal шифрует секрет и возвращает новый Account с last_used = now.
func (r OtpRecord) Seal(sealer SecretSealer, now time.Time) (Account, error) {
	if r.issuer == "" || r.label == "" || r.secret == "" {
		return Account{}, ErrEmptyField
	}
	blob, err := sealer.Encrypt(r.secret)
	if err != nil {
		return Account{}, fmt.Errorf("encrypt secret: %w", err)
	}
	return Account{
		Issuer:   r.issuer,
		Label:    r.label,
		Secret:   blob,
		LastUsed: NewTimestamp(now),
	}, nil
}
