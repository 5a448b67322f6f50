package commands

import (
	"context"
	"fmt"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/service"
)

type listCmd struct{}

func (listCmd) Name() string        { return "list" }
func (listCmd) Description() string { return "Show all accounts" }
func (listCmd) Usage() string       { return "list" }

func (listCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		list := auth.Accounts()
		if len(list) == 0 {
			fmt.Fprintln(Out, "No accounts")
			return nil
		}
		for i, a := range list {
			star := " "
			if a.Favorite {
				star = "*"
			}
			fmt.Fprintf(Out, "%3d %s %-24s %-32s used=%d last=%s\n", i, star, a.Issuer, a.Label, a.UsedFrequency, a.LastUsed)
		}
		fmt.Fprintf(Out, "Total: %d\n", len(list))
		return nil
	})
}

func init() { RegisterCmd(listCmd{}) }
