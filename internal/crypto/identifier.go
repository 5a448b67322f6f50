package crypto

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// IdentifierSource даёт стабильную строку, к которой привязан ключ хранилища.
type IdentifierSource interface {
	Identifier() (string, error)
}

// StaticIdentifier — заданная пользователем замена (настройка alt_id).
type StaticIdentifier string

// Identifier возвращает заданное значение.
func (s StaticIdentifier) Identifier() (string, error) {
	if s == "" {
		return "", ErrEmptyIdentifier
	}
	return string(s), nil
}

// ResolveIdentifier предпочитает непустой alt_id системному источнику.
func ResolveIdentifier(altID string, system IdentifierSource) IdentifierSource {
	if altID != "" {
		return StaticIdentifier(altID)
	}
	return system
}

// SystemIdentifier читает идентификатор машины текущего хоста.
type SystemIdentifier struct {
	goos     string
	readFile func(name string) ([]byte, error)
	run      func(name string, args ...string) ([]byte, error)
}

// NewSystemIdentifier возвращает источник для текущей ОС.
func NewSystemIdentifier() SystemIdentifier {
	return SystemIdentifier{
		goos:     runtime.GOOS,
		readFile: os.ReadFile,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

var linuxIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
	"/sys/class/dmi/id/product_uuid",
}

// Identifier возвращает идентификатор хоста или ошибку, если прочитать его нельзя.
func (s SystemIdentifier) Identifier() (string, error) {
	switch s.goos {
	case "darwin":
		return s.darwinID()
	case "windows":
		return s.windowsID()
	case "linux", "freebsd", "openbsd", "netbsd":
		return s.fileID()
	default:
		return "", fmt.Errorf("unsupported platform: %s", s.goos)
	}
}

func (s SystemIdentifier) fileID() (string, error) {
	for _, p := range linuxIDFiles {
		b, err := s.readFile(p)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	}
	return "", errors.New("no machine id found")
}

func (s SystemIdentifier) darwinID() (string, error) {
	out, err := s.run("ioreg", "-rd1", "-c", "IOPlatformExpertDevice")
	if err != nil {
		return "", fmt.Errorf("ioreg: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "IOPlatformUUID") {
			continue
		}
		parts := strings.Split(line, "\"")
		if len(parts) >= 4 && parts[3] != "" {
			return parts[3], nil
		}
	}
	return "", errors.New("no IOPlatformUUID found")
}

func (s SystemIdentifier) windowsID() (string, error) {
	out, err := s.run("reg", "query", `HKLM\SOFTWARE\Microsoft\Cryptography`, "/v", "MachineGuid")
	if err != nil {
		return "", fmt.Errorf("reg query: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && strings.EqualFold(fields[0], "MachineGuid") {
			return fields[len(fields)-1], nil
		}
	}
	return "", errors.New("no MachineGuid found")
}
