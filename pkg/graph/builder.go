// Package graph validates workflow definitions and computes their execution
// order via topological sort.
package graph

import (
	"fmt"

	"github.com/avollo/tradewind/pkg/models"
)

// ExecutionOrder is a sequence of block ids such that every block appears
// after all blocks that feed it an input. Computed once per run and
// immutable for the run's lifetime.
type ExecutionOrder []string

// Validate checks the structural invariants of a workflow definition:
// unique block ids, connections referencing existing blocks, and port
// indices within the declared input/output ranges.
func Validate(workflow *models.Workflow) error {
	seen := make(map[string]*models.Block, len(workflow.Blocks))

	for _, block := range workflow.Blocks {
		if _, dup := seen[block.ID]; dup {
			return &ValidationError{
				WorkflowID: workflow.ID,
				Reason:     fmt.Sprintf("duplicate block id %q", block.ID),
			}
		}

		if !block.Category.Valid() {
			return &ValidationError{
				WorkflowID: workflow.ID,
				Reason:     fmt.Sprintf("block %q has unknown category %q", block.ID, block.Category),
			}
		}

		seen[block.ID] = block
	}

	for _, conn := range workflow.Connections {
		from, ok := seen[conn.From.BlockID]
		if !ok {
			return &ValidationError{
				WorkflowID: workflow.ID,
				Reason:     fmt.Sprintf("connection references missing source block %q", conn.From.BlockID),
			}
		}

		to, ok := seen[conn.To.BlockID]
		if !ok {
			return &ValidationError{
				WorkflowID: workflow.ID,
				Reason:     fmt.Sprintf("connection references missing destination block %q", conn.To.BlockID),
			}
		}

		if conn.From.Index < 0 || conn.From.Index >= len(from.Outputs) {
			return &ValidationError{
				WorkflowID: workflow.ID,
				Reason: fmt.Sprintf("connection output index %d out of range for block %q (%d outputs)",
					conn.From.Index, from.ID, len(from.Outputs)),
			}
		}

		if conn.To.Index < 0 || conn.To.Index >= len(to.Inputs) {
			return &ValidationError{
				WorkflowID: workflow.ID,
				Reason: fmt.Sprintf("connection input index %d out of range for block %q (%d inputs)",
					conn.To.Index, to.ID, len(to.Inputs)),
			}
		}
	}

	return nil
}

// Build validates the workflow and computes a deterministic execution order
// using Kahn's algorithm. Ties between simultaneously-ready blocks are
// broken by declaration order, so identical definitions always reproduce
// the same order. A cyclic definition fails with *CyclicGraphError and no
// partial order.
func Build(workflow *models.Workflow) (ExecutionOrder, error) {
	if err := Validate(workflow); err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(workflow.Blocks))
	for _, block := range workflow.Blocks {
		inDegree[block.ID] = 0
	}

	// Parallel edges between the same pair of blocks each count once; the
	// order only needs the producer to run first.
	edges := make(map[string]map[string]bool)

	for _, conn := range workflow.Connections {
		if edges[conn.From.BlockID] == nil {
			edges[conn.From.BlockID] = make(map[string]bool)
		}

		if !edges[conn.From.BlockID][conn.To.BlockID] {
			edges[conn.From.BlockID][conn.To.BlockID] = true
			inDegree[conn.To.BlockID]++
		}
	}

	order := make(ExecutionOrder, 0, len(workflow.Blocks))
	placed := make(map[string]bool, len(workflow.Blocks))

	for len(order) < len(workflow.Blocks) {
		ready := ""

		for _, block := range workflow.Blocks {
			if !placed[block.ID] && inDegree[block.ID] == 0 {
				ready = block.ID

				break
			}
		}

		if ready == "" {
			var remaining []string

			for _, block := range workflow.Blocks {
				if !placed[block.ID] {
					remaining = append(remaining, block.ID)
				}
			}

			return nil, &CyclicGraphError{WorkflowID: workflow.ID, Remaining: remaining}
		}

		placed[ready] = true
		order = append(order, ready)

		for successor := range edges[ready] {
			inDegree[successor]--
		}
	}

	return order, nil
}
