package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avollo/tradewind/pkg/emergency"
	"github.com/avollo/tradewind/pkg/eventbus"
	"github.com/avollo/tradewind/pkg/events"
	"github.com/avollo/tradewind/pkg/graph"
	"github.com/avollo/tradewind/pkg/log"
	"github.com/avollo/tradewind/pkg/models"
	"github.com/avollo/tradewind/pkg/resilience"
	"github.com/avollo/tradewind/pkg/statestore"
)

// Supervised wraps the core executor with the cross-cutting run concerns:
// correlation ids, emergency checkpoints, resilience protection for source
// blocks, lifecycle events and status persistence. It composes the
// executor rather than extending it, so each concern stays independently
// testable.
type Supervised struct {
	executor   *Executor
	controller *emergency.Controller
	pipeline   *resilience.Pipeline
	sink       eventbus.EventSink
	store      statestore.Store
	logger     *slog.Logger
}

func NewSupervised(
	executor *Executor,
	controller *emergency.Controller,
	pipeline *resilience.Pipeline,
	sink eventbus.EventSink,
	store statestore.Store,
	logger *slog.Logger,
) *Supervised {
	return &Supervised{
		executor:   executor,
		controller: controller,
		pipeline:   pipeline,
		sink:       sink,
		store:      store,
		logger:     logger.With("module", "supervised_executor"),
	}
}

// ForwardEmergencyEvents subscribes to the controller and republishes its
// transitions on the workflow_events topic, so dashboards follow a single
// stream.
func (s *Supervised) ForwardEmergencyEvents() {
	s.controller.Subscribe(func(event emergency.Event) {
		s.publish(context.Background(), event.ControllerID, events.EmergencyStateChanged{
			BaseEvent: events.BaseEvent{
				ID:        uuid.New().String(),
				Type:      events.EmergencyStateChangedEvent,
				Timestamp: event.Timestamp,
				Metadata:  event.Metadata,
			},
			ControllerID: event.ControllerID,
			Previous:     string(event.Previous),
			Current:      string(event.Current),
			Reason:       event.Reason,
		})
	})
}

// Run executes wf once. Callers receive either a finalized
// ExecutionResult, or an error: *emergency.HaltedError with a partial
// result when a checkpoint stopped the run, a graph error when the
// definition is invalid, or the escaped error of a failed run.
func (s *Supervised) Run(ctx context.Context, wf *models.Workflow) (*models.ExecutionResult, error) {
	run := models.ExecutionContext{
		ExecutionID: generateExecutionID(),
		WorkflowID:  wf.ID,
		Variables:   wf.Variables,
		Metadata:    make(map[string]any),
		StartedAt:   time.Now(),
	}

	logger := log.WithExecution(s.logger, wf.ID, run.ExecutionID)
	logger.Info("Starting workflow run", "blocks", len(wf.Blocks))

	if err := s.controller.AssertCanOperate(); err != nil {
		logger.Warn("Run rejected, controller is shut down", "error", err)

		return nil, err
	}

	order, err := graph.Build(wf)
	if err != nil {
		logger.Error("Workflow definition rejected", "error", err)

		return nil, err
	}

	if err := s.controller.AssertCanTrade(); err != nil {
		logger.Warn("Run rejected before start, trading is blocked", "error", err)

		return nil, err
	}

	s.publish(ctx, run.ExecutionID, events.ExecutionStarted{
		BaseEvent: s.baseEvent(events.ExecutionStartedEvent, run),
		NodeCount: len(order),
	})
	s.persistStatus(ctx, run, models.ExecutionStatusRunning)

	result, execErr := s.executor.Execute(ctx, wf, order, run, &runSupervisor{parent: s, run: run, workflow: wf})

	switch {
	case execErr == nil:
		s.publish(ctx, run.ExecutionID, events.ExecutionCompleted{
			BaseEvent:  s.baseEvent(events.ExecutionCompletedEvent, run),
			Status:     result.Status,
			Duration:   result.Duration,
			ErrorCount: len(result.Errors),
		})
		s.persistStatus(ctx, run, result.Status)
		s.persistResult(ctx, run, result)

		logger.Info("Workflow run finished",
			"status", result.Status,
			"duration", result.Duration,
			"errors", len(result.Errors))

		return result, nil

	case emergency.IsHalted(execErr):
		s.publish(ctx, run.ExecutionID, events.ExecutionHalted{
			BaseEvent: s.baseEvent(events.ExecutionHaltedEvent, run),
			Reason:    execErr.Error(),
		})
		s.persistStatus(ctx, run, models.ExecutionStatusHalted)
		s.persistResult(ctx, run, result)

		logger.Warn("Workflow run halted", "reason", execErr.Error())

		return result, execErr

	default:
		s.publish(ctx, run.ExecutionID, events.ExecutionFailed{
			BaseEvent: s.baseEvent(events.ExecutionFailedEvent, run),
			Error:     execErr.Error(),
			Duration:  time.Since(run.StartedAt),
		})
		s.persistStatus(ctx, run, models.ExecutionStatusFailed)

		logger.Error("Workflow run failed", "error", execErr)

		return result, execErr
	}
}

// runSupervisor is the per-run interceptor handed to the core executor.
type runSupervisor struct {
	parent   *Supervised
	run      models.ExecutionContext
	workflow *models.Workflow
}

// BeforeNode is the per-node emergency checkpoint. The trading guard is
// re-checked before every block, not cached, since the controller may
// transition while a long-running block executes.
func (rs *runSupervisor) BeforeNode(ctx context.Context, run models.ExecutionContext, block *models.Block) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before block %s: %w", block.ID, err)
	}

	if err := rs.parent.controller.AssertCanTrade(); err != nil {
		return err
	}

	rs.parent.publish(ctx, run.ExecutionID, events.NodeStarted{
		BaseEvent: rs.parent.baseEvent(events.NodeStartedEvent, run),
		NodeID:    block.ID,
		NodeName:  block.Name,
		Category:  block.Category,
	})

	return nil
}

func (rs *runSupervisor) AfterNode(ctx context.Context, run models.ExecutionContext, block *models.Block, _ map[string]any, duration time.Duration, err error) {
	if err != nil {
		rs.parent.publish(ctx, run.ExecutionID, events.NodeFailed{
			BaseEvent: rs.parent.baseEvent(events.NodeFailedEvent, run),
			NodeID:    block.ID,
			NodeName:  block.Name,
			Category:  block.Category,
			Duration:  duration,
			ErrorKind: errorKind(err),
			Error:     err.Error(),
		})

		return
	}

	rs.parent.publish(ctx, run.ExecutionID, events.NodeCompleted{
		BaseEvent: rs.parent.baseEvent(events.NodeCompletedEvent, run),
		NodeID:    block.ID,
		NodeName:  block.Name,
		Category:  block.Category,
		Duration:  duration,
	})
}

// WrapSource protects a source block with the resilience pipeline. The
// breaker is keyed by the block's type so every run hitting the same
// external dependency shares one breaker.
func (rs *runSupervisor) WrapSource(block *models.Block, call resilience.Call) resilience.Call {
	var timeout time.Duration
	if block.Timeout != nil {
		timeout = block.Timeout.Duration
	}

	operation := rs.workflow.ID + "/" + block.ID

	return rs.parent.pipeline.Wrap(block.Type, operation, timeout, call)
}

func (s *Supervised) baseEvent(eventType events.EventType, run models.ExecutionContext) events.BaseEvent {
	return events.BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now(),
		WorkflowID:  run.WorkflowID,
		ExecutionID: run.ExecutionID,
	}
}

// publish emits one event; a failing event sink is logged and never fails
// the run.
func (s *Supervised) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.sink == nil {
		return
	}

	if err := s.sink.Publish(ctx, key, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.GetType(),
			"error", err)
	}
}

func (s *Supervised) persistStatus(ctx context.Context, run models.ExecutionContext, status models.ExecutionStatus) {
	if s.store == nil {
		return
	}

	key := statestore.ExecutionStatusKey(run.WorkflowID, run.ExecutionID)
	if err := s.store.Set(ctx, key, []byte(status), 0); err != nil {
		s.logger.Error("Failed to persist execution status", "key", key, "error", err)
	}

	latest := statestore.LatestExecutionKey(run.WorkflowID)
	if err := s.store.Set(ctx, latest, []byte(run.ExecutionID), 0); err != nil {
		s.logger.Error("Failed to persist latest execution pointer", "key", latest, "error", err)
	}
}

func (s *Supervised) persistResult(ctx context.Context, run models.ExecutionContext, result *models.ExecutionResult) {
	if s.store == nil || result == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("Failed to serialize execution result", "error", err)

		return
	}

	key := statestore.ExecutionResultKey(run.WorkflowID, run.ExecutionID)
	if err := s.store.Set(ctx, key, payload, 0); err != nil {
		s.logger.Error("Failed to persist execution result", "key", key, "error", err)
	}
}

// generateExecutionID produces the run's correlation id.
func generateExecutionID() string {
	return "run-" + uuid.New().String()[:8]
}
