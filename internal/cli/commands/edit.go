package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/service"
)

type editCmd struct{}

func (editCmd) Name() string        { return "edit" }
func (editCmd) Description() string { return "Rename the issuer and/or label of an account" }
func (editCmd) Usage() string {
	return "edit [--issuer=<issuer>] [--label=<label>] <index>"
}

func (editCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	// флаги допускаются только перед позиционным индексом
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	issuer := fs.String("issuer", "", "new issuer")
	label := fs.String("label", "", "new label")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) != 1 || (*issuer == "" && *label == "") {
		return ErrUsage
	}
	index, err := parseIndex(rest[0])
	if err != nil {
		return err
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		ok, err := auth.Edit(index, *issuer, *label)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDuplicate
		}
		acct, err := auth.Account(index)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Updated: %s (%s)\n", acct.Issuer, acct.Label)
		return nil
	})
}

type favoriteCmd struct{}

func (favoriteCmd) Name() string        { return "favorite" }
func (favoriteCmd) Description() string { return "Mark or unmark an account as favorite" }
func (favoriteCmd) Usage() string       { return "favorite <index> [true|false]" }

func (favoriteCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	favorite := true
	if len(args) == 2 {
		if favorite, err = strconv.ParseBool(args[1]); err != nil {
			return ErrUsage
		}
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		if err := auth.SetFavorite(index, favorite); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Favorite: %t\n", favorite)
		return nil
	})
}

func init() {
	RegisterCmd(editCmd{})
	RegisterCmd(favoriteCmd{})
}
