package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"OTPKeeper/internal/filex"
)

// TokenFileName — имя файла с bearer-токеном локального API.
const TokenFileName = "api_token"

// TokenStore — файловое хранилище токена локального API в каталоге хранилища.
type TokenStore struct {
	Dir string
}

// Path возвращает путь к файлу токена.
func (s TokenStore) Path() string {
	return filepath.Join(s.Dir, TokenFileName)
}

// Save сохраняет токен с правами 0600.
func (s TokenStore) Save(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	return filex.WriteAtomic(s.Path(), []byte(token+"\n"))
}

// Load читает токен из файла.
func (s TokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	token := strings.TrimRight(string(b), " \t\r\n")
	if token == "" {
		return "", errors.New("empty token file")
	}
	return token, nil
}

// Remove удаляет файл токена; отсутствие файла не ошибка.
func (s TokenStore) Remove() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
