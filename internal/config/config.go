package config

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"OTPKeeper/internal/vault"
)

const (
	AppName          = "OTPKeeper"
	SettingsFileName = "settings.ini"
	DefaultListen    = "127.0.0.1:8477"
	DefaultTheme     = "light"
	DefaultLogLevel  = "info"
)

type Config struct {
	// Хранилище
	VaultDir string `env:"OTPKEEPER_VAULT_DIR"`
	AltID    string `env:"OTPKEEPER_ALT_ID"`

	// Подсказки интерфейса; хранятся, чтобы settings.ini не терял ключи
	ThemeName  string `env:"OTPKEEPER_THEME"`
	AutoFindQR bool   `env:"OTPKEEPER_AUTO_FIND_QR"`

	SettingsFile string `env:"OTPKEEPER_SETTINGS"`

	// Локальный API
	ListenAddr string `env:"OTPKEEPER_LISTEN_ADDR"`
	APISecret  string `env:"OTPKEEPER_API_SECRET"`

	LogLevel string `env:"OTPKEEPER_LOG_LEVEL"`
	Version  bool   `env:"-"` // только флаг: вывести версию и выйти
}

// NewConfig собирает конфигурацию: значения по умолчанию < settings.ini < env < флаги.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	flag.StringVar(&cfg.VaultDir, "vault-dir", cfg.VaultDir, "directory holding vault.json, its backup and logs")
	flag.StringVar(&cfg.AltID, "alt-id", cfg.AltID, "identifier overriding the machine id for key derivation")
	flag.StringVar(&cfg.SettingsFile, "settings", cfg.SettingsFile, "path to settings.ini")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "loopback address of the local API (host:port)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if cfg.SettingsFile == "" {
		cfg.SettingsFile = filepath.Join(defaultBaseDir(), SettingsFileName)
	}
	// settings.ini применяется только там, где нет ни env, ни флага
	if s, err := LoadSettings(cfg.SettingsFile); err == nil {
		s.applyTo(cfg, func(envKey, flagName string) bool {
			if flagName != "" && set[flagName] {
				return false
			}
			_, ok := os.LookupEnv(envKey)
			return !ok
		})
	}

	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	if c.VaultDir == "" {
		c.VaultDir = defaultBaseDir()
	}
	if c.ThemeName != "light" && c.ThemeName != "dark" {
		c.ThemeName = DefaultTheme
	}
	// API слушает только loopback
	if !isLoopback(c.ListenAddr) {
		c.ListenAddr = DefaultListen
	}
	if c.APISecret == "" {
		c.APISecret = randomSecret()
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// VaultPath — файл хранилища внутри VaultDir.
func (c *Config) VaultPath() string { return filepath.Join(c.VaultDir, vault.FileName) }

// LogDir — подкаталог logs/ каталога хранилища.
func (c *Config) LogDir() string { return filepath.Join(c.VaultDir, "logs") }

// JournalPath — SQLite-журнал событий.
func (c *Config) JournalPath() string { return filepath.Join(c.LogDir(), "events.db") }

func defaultBaseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = home
	}
	return filepath.Join(dir, AppName)
}

func isLoopback(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
