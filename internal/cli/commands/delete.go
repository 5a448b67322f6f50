package commands

import (
	"context"
	"fmt"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/service"
	"OTPKeeper/internal/vault"
)

type deleteCmd struct{}

func (deleteCmd) Name() string        { return "delete" }
func (deleteCmd) Description() string { return "Delete an account" }
func (deleteCmd) Usage() string       { return "delete <index>" }

func (deleteCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
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
		ok, err := auth.DeleteAccount(acct)
		if err != nil {
			return err
		}
		if !ok {
			return vault.ErrIndexOutOfRange
		}
		fmt.Fprintf(Out, "Deleted: %s (%s)\n", acct.Issuer, acct.Label)
		return nil
	})
}

type sortCmd struct{}

func (sortCmd) Name() string        { return "sort" }
func (sortCmd) Description() string { return "Reorder accounts and save the order" }
func (sortCmd) Usage() string       { return "sort alpha|recency|frequency" }

func (sortCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	order := service.SortOrder(args[0])
	switch order {
	case service.SortAlpha, service.SortRecency, service.SortFrequency:
	default:
		return ErrUsage
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		if err := auth.Sort(order); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Sorted by %s\n", order)
		return nil
	})
}

func init() {
	RegisterCmd(deleteCmd{})
	RegisterCmd(sortCmd{})
}
