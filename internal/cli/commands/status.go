package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"OTPKeeper/internal/cli/api"
	"OTPKeeper/internal/config"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Check that otpkeeperd answers on the listen address" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	token, err := api.LoadToken(cfg.VaultDir)
	if err != nil {
		return err
	}
	base := api.BaseURL(cfg.ListenAddr)
	resp, body, err := api.DoJSON(ctx, http.MethodGet, base+"/api/accounts", nil, token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var accounts []json.RawMessage
	if err := json.Unmarshal(body, &accounts); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintf(Out, "otpkeeperd is running at %s (%d accounts)\n", base, len(accounts))
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
