package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/service"
	"OTPKeeper/internal/transfer"
)

// withStatus добавляет к ошибке переноса её числовой код.
func withStatus(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("status %d: %w", transfer.StatusOf(err), err)
}

type backupCmd struct{}

func (backupCmd) Name() string        { return "backup" }
func (backupCmd) Description() string { return "Write an encrypted copy of the vault" }
func (backupCmd) Usage() string       { return "backup <path>" }

func (backupCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		if err := auth.Backup(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Backup written: %s\n", args[0])
		return nil
	})
}

type exportCmd struct{}

func (exportCmd) Name() string { return "export" }
func (exportCmd) Description() string {
	return "Export accounts with plain secrets as JSON or otpauth:// URIs"
}
func (exportCmd) Usage() string { return "export [--format=json|uri] <path>" }

func (exportCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	formatName := fs.String("format", string(transfer.FormatJSON), "json or uri")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return ErrUsage
	}
	format, err := transfer.ParseFormat(*formatName)
	if err != nil {
		return ErrUsage
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		if err := auth.Export(rest[0], format); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Exported (%s): %s\n", format, rest[0])
		return nil
	})
}

type restoreCmd struct{}

func (restoreCmd) Name() string        { return "restore" }
func (restoreCmd) Description() string { return "Replace the vault with an encrypted backup" }
func (restoreCmd) Usage() string       { return "restore <path>" }

func (restoreCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		n, err := auth.Restore(args[0])
		if err != nil {
			return withStatus(err)
		}
		fmt.Fprintf(Out, "Restored %d accounts\n", n)
		return nil
	})
}

type importCmd struct{}

func (importCmd) Name() string { return "import" }
func (importCmd) Description() string {
	return "Merge a plain-text export (JSON or URI list) into the vault"
}
func (importCmd) Usage() string { return "import <path>" }

func (importCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		conflicts, err := auth.Import(args[0])
		if err != nil {
			return withStatus(err)
		}
		fmt.Fprintf(Out, "Imported. Conflicts: %d\n", conflicts)
		return nil
	})
}

type previewCmd struct{}

func (previewCmd) Name() string        { return "preview" }
func (previewCmd) Description() string { return "List the entries of an import file without importing" }
func (previewCmd) Usage() string       { return "preview <path>" }

func (previewCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		entries, err := auth.ImportPreview(args[0])
		if err != nil {
			return withStatus(err)
		}
		for i, e := range entries {
			fmt.Fprintf(Out, "%3d %-24s %s\n", i, e.Record.Issuer(), e.Record.Label())
		}
		fmt.Fprintf(Out, "Total: %d\n", len(entries))
		return nil
	})
}

func init() {
	RegisterCmd(backupCmd{})
	RegisterCmd(exportCmd{})
	RegisterCmd(restoreCmd{})
	RegisterCmd(importCmd{})
	RegisterCmd(previewCmd{})
}
