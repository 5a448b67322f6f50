package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"OTPKeeper/internal/cli/bootstrap"
	"OTPKeeper/internal/config"
	"OTPKeeper/internal/handlers"
	"OTPKeeper/internal/middleware"
	"OTPKeeper/internal/repo"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 5 * time.Second
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()

	if cfg.Version {
		fmt.Printf("OTPKeeper API\nVersion: %s\nBuild date: %s\n", version, buildDate)
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "otpkeeperd: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	core, done, err := bootstrap.Open(cfg, true)
	if err != nil {
		return err
	}
	defer done()

	sugar := core.Logger
	middleware.SetLogger(sugar) // передаём логгер в middleware

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	token, err := middleware.IssueToken(cfg.APISecret, tokenTTL)
	if err != nil {
		return fmt.Errorf("issue api token: %w", err)
	}
	store := repo.TokenStore{Dir: cfg.VaultDir}
	if err := store.Save(token); err != nil {
		return fmt.Errorf("save api token: %w", err)
	}
	defer func() {
		if err := store.Remove(); err != nil {
			sugar.Warnw("failed to remove api token", "path", store.Path(), "error", err)
		}
	}()
	fmt.Println(token)

	h := handlers.NewHandler(core.Auth, sugar, cfg)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sugar.Infow("Starting server",
		"addr", cfg.ListenAddr,
		"vault", cfg.VaultPath(),
		"token_file", store.Path(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	sugar.Infow("Server stopped")
	return nil
}
