// Package service собирает ядро (хранилище, перенос, журнал) в единый фасад,
// которым пользуются CLI и локальный API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"OTPKeeper/internal/model"
	"OTPKeeper/internal/otp"
	"OTPKeeper/internal/repo"
	"OTPKeeper/internal/transfer"
	"OTPKeeper/internal/vault"
)

// SortOrder выбирает порядок сортировки списка.
type SortOrder string

const (
	SortAlpha     SortOrder = "alpha"
	SortRecency   SortOrder = "recency"
	SortFrequency SortOrder = "frequency"
)

// ErrUnknownSort возвращается для неизвестного порядка сортировки.
var ErrUnknownSort = errors.New("unknown sort order")

// Code — текущий код аккаунта и сколько секунд он ещё действителен.
type Code struct {
	Code             string `json:"code"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

// Authenticator — фасад ядра для внешних интерфейсов.
type Authenticator struct {
	vault    *vault.Engine
	transfer *transfer.Engine
	events   repo.EventRepository
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewAuthenticator создаёт фасад. events может быть nil — тогда журнал пуст.
func NewAuthenticator(v *vault.Engine, t *transfer.Engine, events repo.EventRepository, logger *zap.SugaredLogger) *Authenticator {
	if events == nil {
		events = repo.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Authenticator{vault: v, transfer: t, events: events, logger: logger, now: time.Now}
}

// WithClock подменяет часы для генерации кодов (для тестов).
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// Accounts возвращает текущий список аккаунтов.
func (a *Authenticator) Accounts() []model.Account { return a.vault.Accounts() }

// Account возвращает аккаунт по индексу.
func (a *Authenticator) Account(index int) (model.Account, error) { return a.vault.Account(index) }

// AddURI разбирает otpauth-URI и сохраняет новый аккаунт.
func (a *Authenticator) AddURI(uri string) (bool, error) {
	_, ok, err := a.CreateFromURI(uri)
	return ok, err
}

// CreateFromURI как AddURI, но возвращает сохранённый аккаунт.
func (a *Authenticator) CreateFromURI(uri string) (model.Account, bool, error) {
	rec, err := otp.ParseURI(uri)
	if err != nil {
		return model.Account{}, false, err
	}
	return a.CreateAccount(rec)
}

// SaveNewAccount сохраняет запись; false — дубликат (issuer, label).
func (a *Authenticator) SaveNewAccount(rec model.OtpRecord) (bool, error) {
	_, ok, err := a.CreateAccount(rec)
	return ok, err
}

// CreateAccount сохраняет запись и возвращает её зашифрованный вид.
func (a *Authenticator) CreateAccount(rec model.OtpRecord) (model.Account, bool, error) {
	acct, ok, err := a.vault.AddAccount(rec)
	if err != nil {
		return model.Account{}, false, err
	}
	if !ok {
		a.logger.Infow("duplicate account rejected", "issuer", rec.Issuer(), "label", rec.Label())
	}
	return acct, ok, nil
}

// UpdateAccount заменяет аккаунт по индексу.
func (a *Authenticator) UpdateAccount(index int, acct model.Account) (bool, error) {
	return a.vault.UpdateAccount(index, acct)
}

// Edit меняет issuer и label аккаунта по индексу, сохраняя остальные поля.
func (a *Authenticator) Edit(index int, issuer, label string) (bool, error) {
	acct, err := a.vault.Account(index)
	if err != nil {
		return false, err
	}
	if issuer != "" {
		acct.Issuer = issuer
	}
	if label != "" {
		acct.Label = label
	}
	return a.vault.UpdateAccount(index, acct)
}

// SetFavorite помечает аккаунт избранным (или снимает пометку).
func (a *Authenticator) SetFavorite(index int, favorite bool) error {
	acct, err := a.vault.Account(index)
	if err != nil {
		return err
	}
	acct.Favorite = favorite
	_, err = a.vault.UpdateAccount(index, acct)
	return err
}

// DeleteAccount удаляет аккаунт по значению.
func (a *Authenticator) DeleteAccount(acct model.Account) (bool, error) {
	return a.vault.DeleteAccount(acct)
}

// DeleteAt удаляет аккаунт по индексу.
func (a *Authenticator) DeleteAt(index int) (bool, error) {
	acct, err := a.vault.Account(index)
	if err != nil {
		return false, err
	}
	return a.vault.DeleteAccount(acct)
}

// Sort сортирует и сохраняет список.
func (a *Authenticator) Sort(order SortOrder) error {
	switch order {
	case SortAlpha:
		return a.vault.SortAlphabetically()
	case SortRecency:
		return a.vault.SortRecency()
	case SortFrequency:
		return a.vault.SortFrequency()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSort, order)
	}
}

// GenerateCode считает текущий код аккаунта.
func (a *Authenticator) GenerateCode(acct model.Account) (Code, error) {
	now := a.now().Unix()
	code, err := otp.GenerateCodeForAccount(acct, a.vault.Cipher(), now)
	if err != nil {
		return Code{}, err
	}
	return Code{Code: code, SecondsRemaining: otp.SecondsRemaining(now)}, nil
}

// CodeAt считает текущий код аккаунта по индексу.
func (a *Authenticator) CodeAt(index int) (Code, error) {
	acct, err := a.vault.Account(index)
	if err != nil {
		return Code{}, err
	}
	return a.GenerateCode(acct)
}

// URI возвращает otpauth-URI аккаунта с открытым секретом.
func (a *Authenticator) URI(acct model.Account) (string, error) {
	return otp.AccountURI(acct, a.vault.Cipher())
}

// ConsumeCode отмечает использование кода: last_used и used_frequency.
func (a *Authenticator) ConsumeCode(index int) (model.Account, error) {
	return a.vault.ConsumeCode(index)
}

// Backup пишет зашифрованную копию списка в path.
func (a *Authenticator) Backup(path string) error { return a.transfer.Backup(path) }

// Export пишет список с открытыми секретами в path.
func (a *Authenticator) Export(path string, format transfer.Format) error {
	return a.transfer.Export(path, format)
}

// Restore заменяет содержимое хранилища резервной копией.
func (a *Authenticator) Restore(path string) (int, error) { return a.transfer.Restore(path) }

// Import сливает файл с хранилищем и возвращает число конфликтов.
func (a *Authenticator) Import(path string) (int, error) { return a.transfer.Import(path) }

// ImportPreview разбирает файл импорта без изменения хранилища.
func (a *Authenticator) ImportPreview(path string) ([]transfer.ImportedEntry, error) {
	return a.transfer.ImportPreview(path)
}

// Rekey перешифровывает хранилище новым шифром.
func (a *Authenticator) Rekey(next vault.Cipher) (int, error) { return a.vault.Rekey(next) }

// Events возвращает последние события журнала.
func (a *Authenticator) Events(ctx context.Context, limit int) ([]model.Event, error) {
	return a.events.List(ctx, limit)
}
