package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/model"
	"OTPKeeper/internal/otp"
	"OTPKeeper/internal/service"
)

// ErrDuplicate сообщает, что аккаунт с тем же issuer и label уже есть.
var ErrDuplicate = errors.New("account already exists")

type addCmd struct{}

func (addCmd) Name() string { return "add" }
func (addCmd) Description() string {
	return "Add an account from an otpauth:// URI or from issuer, label and secret"
}
func (addCmd) Usage() string { return "add <otpauth-uri> | add <issuer> <label> <secret>" }

func (addCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	var rec model.OtpRecord
	switch len(args) {
	case 1:
		if !strings.HasPrefix(strings.ToLower(args[0]), otp.Scheme+":") {
			return ErrUsage
		}
		r, err := otp.ParseURI(args[0])
		if err != nil {
			return err
		}
		rec = r
	case 3:
		rec = model.NewOtpRecord(args[0], args[1], args[2])
	default:
		return ErrUsage
	}

	return withCore(cfg, func(auth *service.Authenticator) error {
		saved, err := auth.SaveNewAccount(rec)
		if err != nil {
			return err
		}
		if !saved {
			return fmt.Errorf("%w: %s", ErrDuplicate, rec.Identity())
		}
		fmt.Fprintf(Out, "Added: %s (%s)\n", rec.Issuer(), rec.Label())
		return nil
	})
}

func init() { RegisterCmd(addCmd{}) }
