package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/avollo/tradewind/pkg/cmd"
	"github.com/avollo/tradewind/pkg/emergency"
	"github.com/avollo/tradewind/pkg/models"
	"github.com/avollo/tradewind/pkg/nodes/action"
	"github.com/avollo/tradewind/pkg/resilience"
	"github.com/avollo/tradewind/pkg/workflow"
)

func run(ctx context.Context, command *cli.Command, logger *slog.Logger) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := cmd.NewStateStore(command.String("state-store"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("Failed to close state store", "error", err)
		}
	}()

	bus, err := cmd.NewEventBus(command.String("event-bus"), "tradewind-runner", logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	controller := emergency.NewController(command.String("controller-id"), logger)

	restored, err := controller.Restore(runCtx, store)
	if err != nil {
		return err
	}

	if restored {
		logger.Info("Restored emergency controller state", "state", controller.State())
	}

	defer func() {
		if err := controller.Persist(context.Background(), store); err != nil {
			logger.Error("Failed to persist emergency controller state", "error", err)
		}
	}()

	broker := action.NewPaperBroker(logger)
	notifier := action.NewLogNotifier(logger)
	catalog := cmd.NewCatalog(logger, controller, broker, notifier)

	pipeline := resilience.NewPipeline(resilience.PipelineConfig{}, logger)

	executor := workflow.NewExecutor(catalog, logger)
	supervised := workflow.NewSupervised(executor, controller, pipeline, bus, store, logger)
	supervised.ForwardEmergencyEvents()

	wf, err := workflow.NewRepository().LoadFile(command.String("workflow"))
	if err != nil {
		return err
	}

	handleSignals(logger, cancel)

	schedule := command.String("schedule")
	if schedule == "" {
		_, err := supervised.Run(runCtx, wf)

		return err
	}

	return runScheduled(runCtx, supervised, wf, schedule, logger)
}

// runScheduled executes the workflow on the cron schedule until the
// context is cancelled. Overlapping runs are allowed; each one is an
// independent run with its own correlation id.
func runScheduled(ctx context.Context, supervised *workflow.Supervised, wf *models.Workflow, schedule string, logger *slog.Logger) error {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(schedule, func() {
		if _, err := supervised.Run(ctx, wf); err != nil {
			logger.Error("Scheduled run failed", "workflow_id", wf.ID, "error", err)
		}
	})
	if err != nil {
		return err
	}

	logger.Info("Starting scheduled runs", "workflow_id", wf.ID, "schedule", schedule)
	scheduler.Start()

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	return nil
}

func handleSignals(logger *slog.Logger, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		logger.Info("Received signal, shutting down", "signal", sig.String())
		cancel()
	}()
}
