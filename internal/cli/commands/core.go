package commands

import (
	"fmt"
	"strconv"

	"OTPKeeper/internal/cli/bootstrap"
	"OTPKeeper/internal/config"
	"OTPKeeper/internal/service"
)

// withCore открывает ядро на время выполнения fn и закрывает его после.
func withCore(cfg *config.Config, fn func(auth *service.Authenticator) error) error {
	core, done, err := bootstrap.Open(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	return fn(core.Auth)
}

// parseIndex разбирает индекс аккаунта из аргумента командной строки.
func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: invalid index %q", ErrUsage, s)
	}
	return i, nil
}
