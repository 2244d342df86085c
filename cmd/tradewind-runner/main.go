package main

import (
	"context"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/avollo/tradewind/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "tradewind-runner",
		EnableShellCompletion: true,
		Usage:                 "Execute trading workflows once or on a schedule",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "workflow",
				Aliases:  []string{"w"},
				Usage:    "Path to the workflow definition JSON file",
				Required: true,
				Sources:  cli.EnvVars("WORKFLOW_FILE"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for repeated runs (runs once when empty)",
				Value:   "",
				Sources: cli.EnvVars("RUN_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "state-store",
				Usage:   "State store URL (memory://, redis://...)",
				Value:   "memory://",
				Sources: cli.EnvVars("STATE_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "controller-id",
				Usage:   "Emergency controller scope shared with tradewind-ops",
				Value:   "default",
				Sources: cli.EnvVars("CONTROLLER_ID"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("tradewind-runner")
			logger.InfoContext(ctx, "Initializing runner")

			return run(ctx, command, logger)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("Runner exited with error", "error", err)
		os.Exit(1)
	}
}
