// tradewind-ops is the operator surface for the shared emergency
// controller: halt, resume, shutdown and status against the state store
// the runners use.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/avollo/tradewind/pkg/cmd"
	"github.com/avollo/tradewind/pkg/emergency"
	"github.com/avollo/tradewind/pkg/log"
	"github.com/avollo/tradewind/pkg/statestore"
)

func main() {
	sharedFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "state-store",
			Usage:    "State store URL shared with the runners (redis://...)",
			Required: true,
			Sources:  cli.EnvVars("STATE_STORE_URL"),
		},
		&cli.StringFlag{
			Name:    "controller-id",
			Usage:   "Emergency controller scope",
			Value:   "default",
			Sources: cli.EnvVars("CONTROLLER_ID"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "warn",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}

	reasonFlag := &cli.StringFlag{
		Name:     "reason",
		Usage:    "Human reason recorded with the transition",
		Required: true,
	}

	root := &cli.Command{
		Name:  "tradewind-ops",
		Usage: "Operate the emergency controller shared by workflow runners",
		Commands: []*cli.Command{
			{
				Name:  "halt",
				Usage: "Block all new trading until resume",
				Flags: append([]cli.Flag{reasonFlag}, sharedFlags...),
				Action: func(ctx context.Context, command *cli.Command) error {
					return transition(ctx, command, func(c *emergency.Controller, reason string) error {
						return c.Halt(reason, nil)
					})
				},
			},
			{
				Name:  "alert",
				Usage: "Raise the controller into alert without blocking trading",
				Flags: append([]cli.Flag{reasonFlag}, sharedFlags...),
				Action: func(ctx context.Context, command *cli.Command) error {
					return transition(ctx, command, func(c *emergency.Controller, reason string) error {
						return c.Alert(reason, nil)
					})
				},
			},
			{
				Name:  "resume",
				Usage: "Return the controller to normal",
				Flags: append([]cli.Flag{reasonFlag}, sharedFlags...),
				Action: func(ctx context.Context, command *cli.Command) error {
					return transition(ctx, command, func(c *emergency.Controller, reason string) error {
						return c.Resume(reason, nil)
					})
				},
			},
			{
				Name:  "shutdown",
				Usage: "Terminally stop the controller scope",
				Flags: append([]cli.Flag{reasonFlag}, sharedFlags...),
				Action: func(ctx context.Context, command *cli.Command) error {
					return transition(ctx, command, func(c *emergency.Controller, reason string) error {
						return c.Shutdown(reason, nil)
					})
				},
			},
			{
				Name:   "status",
				Usage:  "Print the controller state and tracked risk limits",
				Flags:  sharedFlags,
				Action: status,
			},
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadController restores the shared controller from the state store.
func loadController(ctx context.Context, command *cli.Command) (*emergency.Controller, statestore.Store, error) {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("tradewind-ops")

	store, err := cmd.NewStateStore(command.String("state-store"))
	if err != nil {
		return nil, nil, err
	}

	controller := emergency.NewController(command.String("controller-id"), logger)

	if _, err := controller.Restore(ctx, store); err != nil {
		_ = store.Close(ctx)

		return nil, nil, err
	}

	return controller, store, nil
}

func transition(ctx context.Context, command *cli.Command, apply func(*emergency.Controller, string) error) error {
	controller, store, err := loadController(ctx, command)
	if err != nil {
		return err
	}

	defer func() { _ = store.Close(ctx) }()

	if err := apply(controller, command.String("reason")); err != nil {
		return err
	}

	if err := controller.Persist(ctx, store); err != nil {
		return err
	}

	fmt.Printf("controller %s is now %s\n", controller.ID(), controller.State())

	return nil
}

func status(ctx context.Context, command *cli.Command) error {
	controller, store, err := loadController(ctx, command)
	if err != nil {
		return err
	}

	defer func() { _ = store.Close(ctx) }()

	fmt.Printf("controller: %s\nstate:      %s\n", controller.ID(), controller.State())

	if reason := controller.HaltReason(); reason != "" {
		fmt.Printf("reason:     %s\n", reason)
	}

	limits := controller.Limits()
	if len(limits) > 0 {
		fmt.Println("limits:")

		for name, limit := range limits {
			marker := ""
			if limit.Exceeded() {
				marker = " EXCEEDED"
			} else if limit.Warning() {
				marker = " WARNING"
			}

			fmt.Printf("  %-20s current=%v limit=%v kind=%s%s\n",
				name, limit.Current, limit.Limit, limit.Kind, marker)
		}
	}

	return nil
}
