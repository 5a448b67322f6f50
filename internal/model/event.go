package model

import "time"

// Event — строка журнала о событии хранилища.
type Event struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Kind      string    `gorm:"not null;index" json:"kind"`
	Cause     string    `json:"cause"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Виды событий журнала.
const (
	EventCorruption = "corruption"
	EventRecovery   = "recovery"
	EventRestore    = "restore"
	EventImport     = "import"
	EventExport     = "export"
	EventBackup     = "backup"
	EventRekey      = "rekey"
)
