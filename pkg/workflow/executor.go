// Package workflow drives block execution: a core graph executor walking
// the precomputed order, and a supervised executor layering correlation,
// emergency checkpoints, resilience and eventing around it.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/emergency"
	"github.com/avollo/tradewind/pkg/graph"
	"github.com/avollo/tradewind/pkg/log"
	"github.com/avollo/tradewind/pkg/models"
	"github.com/avollo/tradewind/pkg/resilience"
)

// Interceptor hooks the supervised layer into the core executor without
// subclassing it. A nil interceptor runs the graph bare.
type Interceptor interface {
	// BeforeNode runs before each block. A returned error aborts the
	// whole run: *emergency.HaltedError finalizes it as halted, anything
	// else as failed.
	BeforeNode(ctx context.Context, run models.ExecutionContext, block *models.Block) error

	// AfterNode runs after each block with its outcome.
	AfterNode(ctx context.Context, run models.ExecutionContext, block *models.Block, outputs map[string]any, duration time.Duration, err error)

	// WrapSource may wrap a source block's call with protection layers.
	WrapSource(block *models.Block, call resilience.Call) resilience.Call
}

// Executor walks an execution order sequentially, resolving each block's
// inputs from the outputs produced so far. It owns no shared state: every
// run gets its own outputs map and result.
type Executor struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewExecutor(cat *catalog.Catalog, logger *slog.Logger) *Executor {
	return &Executor{
		catalog: cat,
		logger:  logger.With("module", "workflow_executor"),
	}
}

// Execute runs every block of wf in order. Node-local errors are recorded
// in the result and execution continues; only an interceptor abort stops
// the run early, in which case the partially filled result is returned
// together with the abort error.
func (e *Executor) Execute(ctx context.Context, wf *models.Workflow, order graph.ExecutionOrder, run models.ExecutionContext, interceptor Interceptor) (*models.ExecutionResult, error) {
	logger := log.WithExecution(e.logger, wf.ID, run.ExecutionID)

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	result := &models.ExecutionResult{
		ExecutionID: run.ExecutionID,
		WorkflowID:  wf.ID,
		Status:      models.ExecutionStatusRunning,
		StartedAt:   started,
	}

	outputs := make(models.NodeOutputs, len(order))

	for _, blockID := range order {
		block := wf.BlockByID(blockID)
		if block == nil {
			// Build validated the definition, so this is unreachable
			// unless the caller mixed up workflow and order.
			return nil, fmt.Errorf("block %s from execution order not found in workflow %s", blockID, wf.ID)
		}

		if interceptor != nil {
			if err := interceptor.BeforeNode(ctx, run, block); err != nil {
				if emergency.IsHalted(err) {
					result.Status = models.ExecutionStatusHalted
				} else {
					result.Status = models.ExecutionStatusFailed
				}

				result.Duration = time.Since(started)

				return result, err
			}
		}

		inputs := e.resolveInputs(wf, block, outputs)

		nodeStart := time.Now()
		nodeOutputs, err := e.dispatch(ctx, run, block, inputs, interceptor)
		nodeDuration := time.Since(nodeStart)

		if interceptor != nil {
			interceptor.AfterNode(ctx, run, block, nodeOutputs, nodeDuration, err)
		}

		if err != nil {
			logger.Error("Block execution failed",
				"block_id", block.ID,
				"block_type", block.Type,
				"error", err)

			result.Errors = append(result.Errors, models.NodeError{
				NodeID:  block.ID,
				Kind:    errorKind(err),
				Message: err.Error(),
			})

			continue
		}

		outputs[block.ID] = nodeOutputs
		result.Nodes = append(result.Nodes, models.NodeOutcome{
			NodeID:   block.ID,
			Name:     block.Name,
			Category: block.Category,
			Outputs:  nodeOutputs,
			Duration: nodeDuration,
		})
	}

	if len(result.Errors) > 0 {
		result.Status = models.ExecutionStatusCompletedWithErrors
	} else {
		result.Status = models.ExecutionStatusCompleted
	}

	result.Duration = time.Since(started)

	return result, nil
}

// resolveInputs looks up, for every inbound connection, the producing
// block's already-computed output. A producer that failed or never ran
// yields the explicit Unavailable marker, never a fabricated value.
func (e *Executor) resolveInputs(wf *models.Workflow, block *models.Block, outputs models.NodeOutputs) map[string]any {
	inputs := make(map[string]any)

	for _, conn := range wf.InboundConnections(block.ID) {
		inputName := block.Inputs[conn.To.Index]

		producer := wf.BlockByID(conn.From.BlockID)
		outputName := producer.Outputs[conn.From.Index]

		produced, ok := outputs[conn.From.BlockID]
		if !ok {
			inputs[inputName] = models.Unavailable

			continue
		}

		value, ok := produced[outputName]
		if !ok {
			inputs[inputName] = models.Unavailable

			continue
		}

		inputs[inputName] = value
	}

	return inputs
}

// dispatch creates the block's behavior and runs it, converting panics
// into node-local errors so one misbehaving node cannot abort an
// otherwise healthy run.
func (e *Executor) dispatch(ctx context.Context, run models.ExecutionContext, block *models.Block, inputs map[string]any, interceptor Interceptor) (outputs map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			outputs = nil
			err = fmt.Errorf("block %s panicked: %v", block.ID, r)
		}
	}()

	behavior, err := e.catalog.Create(block.Category, block.Type, block.Config)
	if err != nil {
		return nil, err
	}

	call := func(callCtx context.Context) (map[string]any, error) {
		return behavior.Execute(callCtx, run, block.Config, inputs)
	}

	if block.Category == models.CategorySource && interceptor != nil {
		call = interceptor.WrapSource(block, call)
	}

	return call(ctx)
}

// errorKind labels a node error for the result's error list and failure
// events.
func errorKind(err error) string {
	switch {
	case resilience.IsCircuitOpen(err):
		return "circuit_open"
	case resilience.IsRetryExhausted(err):
		return "retry_exhausted"
	case resilience.IsTimeout(err):
		return "timeout"
	}

	if kind, ok := resilience.KindOf(err); ok {
		return string(kind)
	}

	return ""
}
