package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/repo"
	"OTPKeeper/internal/service"
)

type eventsCmd struct{}

func (eventsCmd) Name() string { return "events" }
func (eventsCmd) Description() string {
	return "Show recent vault events (corruption, recovery, transfers)"
}
func (eventsCmd) Usage() string { return "events [limit]" }

func (eventsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	limit := repo.DefaultListLimit
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return ErrUsage
		}
		limit = n
	}
	return withCore(cfg, func(auth *service.Authenticator) error {
		events, err := auth.Events(ctx, limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(Out, "No events")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(Out, "%s  %-10s %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Kind, e.Cause)
		}
		return nil
	})
}

func init() { RegisterCmd(eventsCmd{}) }
