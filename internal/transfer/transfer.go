// Package transfer переносит аккаунты между хранилищем и файлами: резервные
// копии и восстановление с шифртекстом, открытый экспорт и импорт со слиянием
// и пометкой конфликтов.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"OTPKeeper/internal/filex"
	"OTPKeeper/internal/model"
	"OTPKeeper/internal/otp"
	"OTPKeeper/internal/vault"
)

// Engine выполняет файловые операции над хранилищем.
type Engine struct {
	vault   *vault.Engine
	logger  *zap.SugaredLogger
	journal vault.Journal
	now     func() time.Time
}

// Option настраивает Engine.
type Option func(*Engine)

// WithJournal включает запись событий переноса в журнал.
func WithJournal(j vault.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithClock подменяет часы для last_used импортируемых записей.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New привязывает движок переноса к хранилищу v.
func New(v *vault.Engine, logger *zap.SugaredLogger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	e := &Engine{vault: v, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backup пишет записи (секреты остаются зашифрованными) голым JSON-массивом.
func (e *Engine) Backup(path string) error {
	accounts := e.vault.Accounts()
	if len(accounts) == 0 {
		return ErrVaultEmpty
	}
	data, err := vault.EncodeEntries(accounts)
	if err != nil {
		return err
	}
	if err := filex.WriteFile(path, data); err != nil {
		return err
	}
	e.logger.Infow("vault backed up", "path", path, "entries", len(accounts))
	e.record(model.EventBackup, fmt.Sprintf("%d entries to %s", len(accounts), path))
	return nil
}

// Export пишет записи с открытыми секретами в заданном формате.
func (e *Engine) Export(path string, format Format) error {
	accounts, c := e.vault.Snapshot()
	if len(accounts) == 0 {
		return ErrVaultEmpty
	}

	var data []byte
	switch format {
	case FormatJSON:
		plain := make([]model.Account, len(accounts))
		for i, a := range accounts {
			s, err := a.PlainSecret(c)
			if err != nil {
				return err
			}
			a.Secret = s
			plain[i] = a
		}
		b, err := vault.EncodeEntries(plain)
		if err != nil {
			return err
		}
		data = b
	case FormatURI:
		var sb strings.Builder
		for _, a := range accounts {
			uri, err := otp.AccountURI(a, c)
			if err != nil {
				return err
			}
			sb.WriteString(uri)
			sb.WriteByte('\n')
		}
		data = []byte(sb.String())
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if err := filex.WriteFile(path, data); err != nil {
		return err
	}
	e.logger.Infow("vault exported", "path", path, "format", format, "entries", len(accounts))
	e.record(model.EventExport, fmt.Sprintf("%d entries to %s as %s", len(accounts), path, format))
	return nil
}

// Restore заменяет хранилище зашифрованными записями из резервной копии:
// голого массива или конверта версии 1.
func (e *Engine) Restore(path string) (int, error) {
	data, err := readFile(path)
	if err != nil {
		return 0, err
	}
	accounts, err := vault.DecodeAny(data, e.vault.Cipher())
	if err != nil {
		if errors.Is(err, vault.ErrParse) || errors.Is(err, vault.ErrVersionMismatch) {
			return 0, fail(StatusJSONParse, err)
		}
		return 0, fail(StatusUnexpected, err)
	}
	if err := e.vault.ReplaceAll(accounts); err != nil {
		return 0, fail(StatusUnexpected, err)
	}
	e.logger.Infow("vault restored", "path", path, "entries", len(accounts))
	e.record(model.EventRestore, fmt.Sprintf("%d entries from %s", len(accounts), path))
	return len(accounts), nil
}

// Import сливает в хранилище открытый JSON или список URI и возвращает
// число конфликтов.
func (e *Engine) Import(path string) (int, error) {
	incoming, err := e.ImportPreview(path)
	if err != nil {
		return 0, err
	}
	var conflicts, added int
	err = e.vault.Update(func(list []model.Account, c vault.Cipher) ([]model.Account, bool, error) {
		merged, n, err := Merge(list, incoming, c, e.now())
		if err != nil {
			return nil, false, err
		}
		conflicts, added = n, len(merged)-len(list)
		return merged, added > 0, nil
	})
	if err != nil {
		return 0, fail(StatusUnexpected, err)
	}
	e.logger.Infow("accounts imported", "path", path, "added", added, "conflicts", conflicts)
	e.record(model.EventImport, fmt.Sprintf("%d added, %d conflicts from %s", added, conflicts, path))
	return conflicts, nil
}

// ImportPreview разбирает файл импорта, не трогая хранилище.
func (e *Engine) ImportPreview(path string) ([]ImportedEntry, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImport(data)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fail(StatusFileMissing, err)
	default:
		return nil, fail(StatusReadFailure, err)
	}
}

func (e *Engine) record(kind, cause string) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(context.Background(), kind, cause); err != nil {
		e.logger.Warnw("journal write failed", "kind", kind, "error", err)
	}
}
