package commands

import (
	"context"
	"fmt"

	"OTPKeeper/internal/cli/bootstrap"
	"OTPKeeper/internal/config"
	"OTPKeeper/internal/service"
)

type rekeyCmd struct{}

func (rekeyCmd) Name() string { return "rekey" }
func (rekeyCmd) Description() string {
	return "Re-encrypt the vault under a new alt_id and store it in settings"
}
func (rekeyCmd) Usage() string { return "rekey <alt-id>" }

func (rekeyCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	next, err := bootstrap.NewCipher(args[0])
	if err != nil {
		return err
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		n, err := auth.Rekey(next)
		if err != nil {
			return err
		}
		// без сохранённого alt_id следующий запуск не откроет хранилище
		cfg.AltID = args[0]
		if err := cfg.SaveSettings(); err != nil {
			return fmt.Errorf("vault re-keyed but settings not saved: %w", err)
		}
		fmt.Fprintf(Out, "Re-encrypted %d accounts\n", n)
		return nil
	})
}

func init() { RegisterCmd(rekeyCmd{}) }
