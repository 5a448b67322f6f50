package commands

import (
	"context"
	"fmt"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/service"
)

type codeCmd struct{}

func (codeCmd) Name() string        { return "code" }
func (codeCmd) Description() string { return "Show the current code of an account" }
func (codeCmd) Usage() string       { return "code <index>" }

func (codeCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		c, err := auth.CodeAt(index)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "%s (%ds)\n", c.Code, c.SecondsRemaining)
		return nil
	})
}

type consumeCmd struct{}

func (consumeCmd) Name() string { return "consume" }
func (consumeCmd) Description() string {
	return "Print the current code and record its use (last used, frequency)"
}
func (consumeCmd) Usage() string { return "consume <index>" }

func (consumeCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		c, err := auth.CodeAt(index)
		if err != nil {
			return err
		}
		acct, err := auth.ConsumeCode(index)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, c.Code)
		fmt.Fprintf(Out, "used %d times, last %s\n", acct.UsedFrequency, acct.LastUsed)
		return nil
	})
}

type uriCmd struct{}

func (uriCmd) Name() string        { return "uri" }
func (uriCmd) Description() string { return "Print the otpauth:// URI of an account (plain secret)" }
func (uriCmd) Usage() string       { return "uri <index>" }

func (uriCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		acct, err := auth.Account(index)
		if err != nil {
			return err
		}
		uri, err := auth.URI(acct)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, uri)
		return nil
	})
}

func init() {
	RegisterCmd(codeCmd{})
	RegisterCmd(consumeCmd{})
	RegisterCmd(uriCmd{})
}
