package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/crypto"
	"OTPKeeper/internal/logging"
	"OTPKeeper/internal/repo"
	"OTPKeeper/internal/service"
	"OTPKeeper/internal/transfer"
	"OTPKeeper/internal/vault"
)

// systemIdentifier подменяется в тестах, чтобы не читать machine-id хоста.
var systemIdentifier crypto.IdentifierSource = crypto.NewSystemIdentifier()

// NewCipher выводит ключ хранилища из alt_id (или machine-id, если alt_id пуст)
// и создаёт шифр.
func NewCipher(altID string) (*crypto.Cipher, error) {
	key, err := crypto.DeriveKey(crypto.ResolveIdentifier(altID, systemIdentifier))
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return crypto.NewCipher(key)
}

// Core — собранное ядро и логгер, в который оно пишет.
type Core struct {
	Auth   *service.Authenticator
	Logger *zap.SugaredLogger
}

// Open собирает ядро для текущей конфигурации: логгер, шифр, журнал событий,
// хранилище и движок переноса. Возвращает (core, cleanup, error).
// cleanup нужно вызвать по завершении работы, чтобы закрыть журнал и сбросить лог.
// console дублирует лог в stderr.
func Open(cfg *config.Config, console bool) (*Core, func() error, error) {
	log, syncLog, err := logging.New(cfg.LogDir(), cfg.LogLevel, console)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	c, err := NewCipher(cfg.AltID)
	if err != nil {
		syncLog()
		return nil, nil, err
	}

	// журнал не обязателен: без него ядро продолжает работать
	journal, err := repo.InitJournal(cfg.JournalPath())
	if err != nil {
		log.Warnw("event journal unavailable", "path", cfg.JournalPath(), "error", err)
		journal = repo.Nop{}
	}

	v, err := vault.New(cfg.VaultPath(), c, log, vault.WithJournal(journal))
	if err != nil {
		_ = journal.Close()
		syncLog()
		return nil, nil, fmt.Errorf("open vault: %w", err)
	}
	t := transfer.New(v, log, transfer.WithJournal(journal))
	auth := service.NewAuthenticator(v, t, journal, log)

	log.Debugw("core opened", "vault", v.Path(), "entries", len(v.Accounts()))

	closed := false
	cleanup := func() error {
		if closed {
			return nil
		}
		closed = true
		err := journal.Close()
		syncLog()
		return err
	}
	return &Core{Auth: auth, Logger: log}, cleanup, nil
}
