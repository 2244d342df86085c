// Package models defines the core domain models for block-based trading workflows.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category classifies what a block does inside a workflow graph.
type Category string

const (
	CategorySource    Category = "source"    // Market data providers (price feeds, balances); the only category performing I/O
	CategoryCondition Category = "condition" // Pure predicates over inputs (threshold, compare, and, or, if)
	CategoryAction    Category = "action"    // Side-effecting trading operations gated by a signal input
	CategoryRisk      Category = "risk"      // Risk-limit evaluation producing a boolean
	CategoryTrigger   Category = "trigger"   // Boolean signal producers with no inputs
)

// Valid reports whether the category is one of the known block categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySource, CategoryCondition, CategoryAction, CategoryRisk, CategoryTrigger:
		return true
	}

	return false
}

// Block is a single node instance in a workflow definition.
type Block struct {
	ID       string         `json:"id"                validate:"required"`
	Name     string         `json:"name"              validate:"required,min=1"`
	Category Category       `json:"category"          validate:"required"`
	Type     string         `json:"type"              validate:"required"`
	Config   map[string]any `json:"config,omitempty"`
	Inputs   []string       `json:"inputs"`
	Outputs  []string       `json:"outputs"`
	Timeout  *Duration      `json:"timeout,omitempty"`
}

// Endpoint addresses one port of one block by declaration index.
type Endpoint struct {
	BlockID string `json:"blockId" validate:"required"`
	Index   int    `json:"index"   validate:"min=0"`
}

// Connection binds a source block's output port to a destination block's
// input port.
type Connection struct {
	From Endpoint `json:"from"`
	To   Endpoint `json:"to"`
}

// Workflow is the immutable definition a run executes. The JSON shape
// (blocks + connections with from/to endpoints) is the published contract
// with workflow authors and must not change.
type Workflow struct {
	ID          string         `json:"id"          validate:"required"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	Blocks      []*Block       `json:"blocks"      validate:"required,min=1,dive"`
	Connections []*Connection  `json:"connections" validate:"dive"`
	Variables   map[string]any `json:"variables,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// BlockByID returns the block with the given id, or nil.
func (w *Workflow) BlockByID(id string) *Block {
	for _, b := range w.Blocks {
		if b.ID == id {
			return b
		}
	}

	return nil
}

// InboundConnections returns every connection whose destination is blockID,
// in declaration order.
func (w *Workflow) InboundConnections(blockID string) []*Connection {
	var inbound []*Connection

	for _, c := range w.Connections {
		if c.To.BlockID == blockID {
			inbound = append(inbound, c)
		}
	}

	return inbound
}

// Duration wraps time.Duration so block timeouts can be written as "30s" in
// workflow JSON documents.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		d.Duration = time.Duration(v) * time.Millisecond
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}

		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration value: %v", raw)
	}

	return nil
}
