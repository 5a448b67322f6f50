// Package vault владеет списком аккаунтов и его зашифрованной формой на диске:
// атомарное сохранение с резервной копией, ленивая перезагрузка при внешнем
// изменении файла и восстановление из копии, если хранилище не прошло проверку.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"OTPKeeper/internal/filex"
	"OTPKeeper/internal/model"
	"OTPKeeper/internal/otp"
)

const (
	// FileName — имя файла хранилища в его каталоге.
	FileName = "vault.json"
	// BackupSuffix заменяет расширение файла хранилища у резервной копии.
	BackupSuffix = ".backup.json"
	tmpSuffix    = ".tmp"
)

// Cipher шифрует и расшифровывает секреты.
type Cipher interface {
	model.SecretSealer
	model.SecretOpener
}

// Journal записывает события хранилища.
type Journal interface {
	Record(ctx context.Context, kind, cause string) error
}

// Option настраивает Engine.
type Option func(*Engine)

// WithClock подменяет часы, используемые для last_used.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithJournal подключает журнал событий.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// fileStamp — отпечаток увиденной версии файла хранилища.
type fileStamp struct {
	exists  bool
	modTime int64
	size    int64
}

// Engine — единственный владелец файла хранилища. Все методы безопасны
// для конкурентного вызова и последовательно согласованы.
type Engine struct {
	mu         sync.Mutex
	path       string
	backupPath string
	tmpPath    string
	cipher     Cipher
	now        func() time.Time
	logger     *zap.SugaredLogger
	journal    Journal

	accounts []model.Account
	loaded   bool
	stamp    fileStamp
}

// BackupPathFor возвращает путь резервной копии для файла хранилища.
func BackupPathFor(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + BackupSuffix
}

// New готовит движок для хранилища по пути path. Каталог должен создаваться;
// сам файл читается лениво при первом обращении.
func New(path string, cipher Cipher, logger *zap.SugaredLogger, opts ...Option) (*Engine, error) {
	if cipher == nil {
		return nil, errors.New("vault: nil cipher")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("vault directory: %w", err)
	}
	e := &Engine{
		path:       path,
		backupPath: BackupPathFor(path),
		tmpPath:    path + tmpSuffix,
		cipher:     cipher,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Path — путь к файлу хранилища.
func (e *Engine) Path() string { return e.path }

// BackupPath — путь к резервной копии.
func (e *Engine) BackupPath() string { return e.backupPath }

// Cipher возвращает текущий шифр хранилища.
func (e *Engine) Cipher() Cipher {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cipher
}

// Snapshot возвращает копию списка и шифр, которым он зашифрован, под одной
// блокировкой: пара остаётся согласованной даже при параллельном Rekey.
func (e *Engine) Snapshot() ([]model.Account, Cipher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh()
	return slices.Clone(e.accounts), e.cipher
}

// Accounts возвращает копию текущего списка, предварительно перечитывая
// файл, если он изменился на диске с последнего чтения или записи.
func (e *Engine) Accounts() []model.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh()
	return slices.Clone(e.accounts)
}

// Account возвращает запись по индексу.
func (e *Engine) Account(index int) (model.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh()
	if index < 0 || index >= len(e.accounts) {
		return model.Account{}, ErrIndexOutOfRange
	}
	return e.accounts[index], nil
}

// SaveNewAccount шифрует rec и вставляет в начало списка. Возвращает false,
// если запись с тем же issuer и label уже есть.
func (e *Engine) SaveNewAccount(rec model.OtpRecord) (bool, error) {
	_, ok, err := e.AddAccount(rec)
	return ok, err
}

// AddAccount — SaveNewAccount, дополнительно возвращающий сохранённую запись
// в том виде, в каком она попала в список.
func (e *Engine) AddAccount(rec model.OtpRecord) (model.Account, bool, error) {
	if rec.Issuer() == "" || rec.Label() == "" || rec.Secret() == "" {
		return model.Account{}, false, model.ErrEmptyField
	}
	if strings.Contains(rec.Issuer(), ":") {
		return model.Account{}, false, ErrInvalidIssuer
	}
	if !otp.IsValidSecretKey(rec.Secret()) {
		return model.Account{}, false, model.ErrInvalidSecret
	}
	rec = model.NewOtpRecord(rec.Issuer(), rec.Label(), otp.NormalizeSecret(rec.Secret()))

	var added model.Account
	ok, err := e.mutate(func(list []model.Account) ([]model.Account, bool, error) {
		if indexOf(list, rec.Identity(), -1) >= 0 {
			return list, false, nil
		}
		acct, err := rec.Seal(e.cipher, e.now())
		if err != nil {
			return list, false, err
		}
		added = acct
		return slices.Insert(list, 0, acct), true, nil
	})
	if err != nil || !ok {
		return model.Account{}, false, err
	}
	return added, true, nil
}

// UpdateAccount заменяет запись по индексу. Возвращает false, если новая
// идентичность совпадает с другой записью.
func (e *Engine) UpdateAccount(index int, acct model.Account) (bool, error) {
	if strings.Contains(acct.Issuer, ":") {
		return false, ErrInvalidIssuer
	}
	if acct.Issuer == "" || acct.Label == "" {
		return false, model.ErrEmptyField
	}
	return e.mutate(func(list []model.Account) ([]model.Account, bool, error) {
		if index < 0 || index >= len(list) {
			return list, false, ErrIndexOutOfRange
		}
		if err := acct.Validate(e.cipher); err != nil {
			return list, false, err
		}
		if indexOf(list, acct.Identity(), index) >= 0 {
			return list, false, nil
		}
		list[index] = acct
		return list, true, nil
	})
}

// DeleteAccount удаляет первую запись, равную acct. Отсутствующая запись — не ошибка.
func (e *Engine) DeleteAccount(acct model.Account) (bool, error) {
	return e.mutate(func(list []model.Account) ([]model.Account, bool, error) {
		i := slices.IndexFunc(list, acct.Equal)
		if i < 0 {
			return list, false, nil
		}
		return slices.Delete(list, i, i+1), true, nil
	})
}

// ConsumeCode отмечает запись по индексу как использованную сейчас и возвращает её.
func (e *Engine) ConsumeCode(index int) (model.Account, error) {
	var out model.Account
	_, err := e.mutate(func(list []model.Account) ([]model.Account, bool, error) {
		if index < 0 || index >= len(list) {
			return list, false, ErrIndexOutOfRange
		}
		list[index].LastUsed = model.NewTimestamp(e.now())
		list[index].UsedFrequency++
		out = list[index]
		return list, true, nil
	})
	return out, err
}

// ReplaceAll заменяет весь список на accounts. Записи должны расшифровываться
// текущим шифром и иметь уникальные идентичности.
func (e *Engine) ReplaceAll(accounts []model.Account) error {
	_, err := e.mutate(func(_ []model.Account) ([]model.Account, bool, error) {
		seen := make(map[model.Identity]struct{}, len(accounts))
		for _, a := range accounts {
			if err := a.Validate(e.cipher); err != nil {
				return nil, false, err
			}
			if _, dup := seen[a.Identity()]; dup {
				return nil, false, fmt.Errorf("%w: %s", ErrDuplicateIdentity, a.Identity())
			}
			seen[a.Identity()] = struct{}{}
		}
		return slices.Clone(accounts), true, nil
	})
	return err
}

// Update вызывает fn над копией списка под блокировкой движка и сохраняет
// результат, если fn сообщила об изменении. Новые секреты fn шифрует через c.
func (e *Engine) Update(fn func(list []model.Account, c Cipher) ([]model.Account, bool, error)) error {
	_, err := e.mutate(func(list []model.Account) ([]model.Account, bool, error) {
		return fn(list, e.cipher)
	})
	return err
}

// Rekey перешифровывает все секреты шифром next и сохраняет один раз.
// При успехе next становится шифром движка.
func (e *Engine) Rekey(next Cipher) (int, error) {
	if next == nil {
		return 0, errors.New("vault: nil cipher")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh()

	list := slices.Clone(e.accounts)
	for i := range list {
		plain, err := list[i].PlainSecret(e.cipher)
		if err != nil {
			return 0, err
		}
		blob, err := next.Encrypt(plain)
		if err != nil {
			return 0, fmt.Errorf("encrypt secret: %w", err)
		}
		list[i].Secret = blob
	}
	if err := e.persist(list); err != nil {
		return 0, err
	}
	e.cipher = next
	e.record(model.EventRekey, fmt.Sprintf("%d entries re-encrypted", len(list)))
	e.logger.Infow("vault rekeyed", "entries", len(list))
	return len(list), nil
}

func (e *Engine) mutate(fn func([]model.Account) ([]model.Account, bool, error)) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh()

	next, changed, err := fn(slices.Clone(e.accounts))
	if err != nil || !changed {
		return false, err
	}
	if err := e.persist(next); err != nil {
		return false, err
	}
	return true, nil
}

func indexOf(list []model.Account, id model.Identity, skip int) int {
	for i, a := range list {
		if i != skip && a.Identity() == id {
			return i
		}
	}
	return -1
}

func (e *Engine) stat() fileStamp {
	fi, err := os.Stat(e.path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{exists: true, modTime: fi.ModTime().UnixNano(), size: fi.Size()}
}

// refresh загружает хранилище, если оно ещё не читалось или изменилось на диске.
// Содержимое диска заменяет список в памяти.
func (e *Engine) refresh() {
	st := e.stat()
	if e.loaded && st == e.stamp {
		return
	}
	if e.loaded {
		e.logger.Infow("vault changed on disk, reloading", "path", e.path)
	}
	e.accounts = e.load()
	e.stamp = st
	e.loaded = true
}

func (e *Engine) load() []model.Account {
	accounts, err := e.readFile(e.path)
	if err == nil {
		return accounts
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	e.logger.Errorw("vault failed validation", "path", e.path, "error", err)
	e.record(model.EventCorruption, err.Error())

	backup, berr := e.readFile(e.backupPath)
	if berr != nil {
		e.logger.Errorw("backup recovery failed, starting empty", "path", e.backupPath, "error", berr)
		e.record(model.EventCorruption, "backup: "+berr.Error())
		return nil
	}
	e.logger.Warnw("vault recovered from backup", "path", e.backupPath, "entries", len(backup))
	e.record(model.EventRecovery, fmt.Sprintf("%d entries from %s", len(backup), e.backupPath))
	return backup
}

func (e *Engine) readFile(path string) ([]model.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeVault(data, e.cipher)
}

// persist пишет список во временный файл, обновляет резервную копию из
// текущего хранилища (если в нём есть записи) и переименовывает на место.
func (e *Engine) persist(list []model.Account) error {
	data, err := EncodeVault(list)
	if err != nil {
		return err
	}
	if _, err := filex.EnsureDir(filepath.Dir(e.path)); err != nil {
		return err
	}
	if err := filex.WriteFile(e.tmpPath, data); err != nil {
		_ = os.Remove(e.tmpPath)
		return err
	}
	if current, err := os.ReadFile(e.path); err == nil && countEntries(current) > 0 {
		if err := filex.CopyFile(e.path, e.backupPath); err != nil {
			_ = os.Remove(e.tmpPath)
			return fmt.Errorf("refresh backup: %w", err)
		}
	}
	if err := filex.Replace(e.tmpPath, e.path); err != nil {
		return err
	}
	e.accounts = list
	e.stamp = e.stat()
	e.logger.Debugw("vault saved", "path", e.path, "entries", len(list))
	return nil
}

func (e *Engine) record(kind, cause string) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(context.Background(), kind, cause); err != nil {
		e.logger.Warnw("journal write failed", "kind", kind, "error", err)
	}
}
