// Package repo хранит журнал событий хранилища в SQLite через gorm.
package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"OTPKeeper/internal/filex"
	"OTPKeeper/internal/model"
)

// DefaultListLimit ограничивает выборку событий, если лимит не задан.
const DefaultListLimit = 100

// EventRepository определяет контракт журнала событий.
type EventRepository interface {
	// Record добавляет событие вида kind с причиной cause.
	Record(ctx context.Context, kind, cause string) error
	// List возвращает последние события, новые первыми.
	List(ctx context.Context, limit int) ([]model.Event, error)
	// Close закрывает соединение с БД.
	Close() error
}

type eventRepo struct {
	db *gorm.DB
}

// InitJournal открывает (и создаёт при необходимости) файл БД журнала и
// выполняет миграции. Для тестов можно передать DSN in-memory базы.
func InitJournal(dsn string) (EventRepository, error) {
	if dsn == "" {
		return nil, errors.New("empty journal dsn")
	}
	if filepath.IsAbs(dsn) {
		if _, err := filex.EnsureDir(filepath.Dir(dsn)); err != nil {
			return nil, err
		}
	}
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return migrate(db)
}

// migrate создаёт схему журнала; при ошибке соединение закрывается.
func migrate(db *gorm.DB) (EventRepository, error) {
	if err := db.AutoMigrate(&model.Event{}); err != nil {
		if sqlDB, e := db.DB(); e == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return NewEventRepository(db), nil
}

// NewEventRepository создаёт репозиторий поверх готового соединения.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Record(ctx context.Context, kind, cause string) error {
	if kind == "" {
		return errors.New("empty event kind")
	}
	ev := model.Event{ID: uuid.NewString(), Kind: kind, Cause: cause}
	return r.db.WithContext(ctx).Create(&ev).Error
}

func (r *eventRepo) List(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var out []model.Event
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("rowid DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Nop — журнал-заглушка, когда БД журнала недоступна.
type Nop struct{}

func (Nop) Record(context.Context, string, string) error     { return nil }
func (Nop) List(context.Context, int) ([]model.Event, error) { return []model.Event{}, nil }
func (Nop) Close() error                                     { return nil }
