package config

import (
	"bytes"
	"fmt"

	"gopkg.in/ini.v1"

	"OTPKeeper/internal/filex"
)

// Ключи settings.ini.
const (
	KeyThemeName  = "theme_name"
	KeyAutoFindQR = "auto_find_qr"
	KeyAltID      = "alt_id"
	KeyVaultDir   = "vault_dir"
)

// Settings — сохраняемая на диск часть конфигурации.
type Settings struct {
	file *ini.File
}

// LoadSettings читает path; отсутствующий файл даёт пустые настройки.
func LoadSettings(path string) (*Settings, error) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("load settings %s: %w", path, err)
	}
	return &Settings{file: f}, nil
}

// Get возвращает значение key или "", если ключ не задан.
func (s *Settings) Get(key string) string {
	return s.file.Section("").Key(key).String()
}

// Set сохраняет значение.
func (s *Settings) Set(key, value string) {
	s.file.Section("").Key(key).SetValue(value)
}

func (s *Settings) has(key string) bool {
	return s.file.Section("").HasKey(key)
}

// applyTo переносит заданные ключи в cfg, если allowed(envKey, flagName)
// подтверждает, что поле не задано источником с большим приоритетом.
func (s *Settings) applyTo(cfg *Config, allowed func(envKey, flagName string) bool) {
	sec := s.file.Section("")
	if s.has(KeyVaultDir) && allowed("OTPKEEPER_VAULT_DIR", "vault-dir") {
		cfg.VaultDir = sec.Key(KeyVaultDir).String()
	}
	if s.has(KeyAltID) && allowed("OTPKEEPER_ALT_ID", "alt-id") {
		cfg.AltID = sec.Key(KeyAltID).String()
	}
	if s.has(KeyThemeName) && allowed("OTPKEEPER_THEME", "") {
		cfg.ThemeName = sec.Key(KeyThemeName).String()
	}
	if s.has(KeyAutoFindQR) && allowed("OTPKEEPER_AUTO_FIND_QR", "") {
		cfg.AutoFindQR = sec.Key(KeyAutoFindQR).MustBool(false)
	}
}

// Save пишет файл настроек с правами только для владельца.
func (s *Settings) Save(path string) error {
	var buf bytes.Buffer
	if _, err := s.file.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return filex.WriteAtomic(path, buf.Bytes())
}

// SaveSettings сохраняет INI-поля c в c.SettingsFile, не трогая прочие
// ключи файла.
func (c *Config) SaveSettings() error {
	s, err := LoadSettings(c.SettingsFile)
	if err != nil {
		return err
	}
	s.Set(KeyThemeName, c.ThemeName)
	s.Set(KeyAutoFindQR, fmt.Sprintf("%t", c.AutoFindQR))
	s.Set(KeyAltID, c.AltID)
	s.Set(KeyVaultDir, c.VaultDir)
	return s.Save(c.SettingsFile)
}
