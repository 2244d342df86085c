// Package condition provides the built-in pure predicate behaviors:
// threshold, compare, and, or, and if-branching.
package condition

import (
	"context"
	"errors"
	"fmt"

	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/models"
)

const (
	InputValue     = "value"
	InputLeft      = "left"
	InputRight     = "right"
	InputA         = "a"
	InputB         = "b"
	InputCondition = "condition"

	OutputResult = "result"
	OutputValue  = "value"
	OutputTrue   = "true"
	OutputFalse  = "false"
)

// thresholdNode passes when its numeric input lies inside [min, max].
// Either bound may be omitted.
type thresholdNode struct {
	min *float64
	max *float64
}

func NewThresholdNode(config map[string]any) (catalog.Behavior, error) {
	node := &thresholdNode{}

	if raw, ok := config["min"]; ok {
		value, err := models.Number(raw)
		if err != nil {
			return nil, fmt.Errorf("threshold min: %w", err)
		}

		node.min = &value
	}

	if raw, ok := config["max"]; ok {
		value, err := models.Number(raw)
		if err != nil {
			return nil, fmt.Errorf("threshold max: %w", err)
		}

		node.max = &value
	}

	if node.min == nil && node.max == nil {
		return nil, errors.New("threshold requires at least one of 'min' and 'max'")
	}

	return node, nil
}

func (n *thresholdNode) Execute(_ context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	raw, ok := inputs[InputValue]
	if !ok || models.IsUnavailable(raw) {
		return map[string]any{OutputResult: false, OutputValue: nil}, nil
	}

	value, err := models.Number(raw)
	if err != nil {
		return nil, fmt.Errorf("threshold input: %w", err)
	}

	pass := true
	if n.min != nil && value < *n.min {
		pass = false
	}

	if n.max != nil && value > *n.max {
		pass = false
	}

	return map[string]any{OutputResult: pass, OutputValue: value}, nil
}

// compareNode evaluates left <op> right. The right operand comes from the
// "right" input port when connected, otherwise from config.
type compareNode struct {
	operator string
	right    *float64
}

func NewCompareNode(config map[string]any) (catalog.Behavior, error) {
	operator, _ := config["operator"].(string)

	switch operator {
	case "gt", "gte", "lt", "lte", "eq", "ne":
	default:
		return nil, fmt.Errorf("compare operator %q is not one of gt, gte, lt, lte, eq, ne", operator)
	}

	node := &compareNode{operator: operator}

	if raw, ok := config["right"]; ok {
		value, err := models.Number(raw)
		if err != nil {
			return nil, fmt.Errorf("compare right: %w", err)
		}

		node.right = &value
	}

	return node, nil
}

func (n *compareNode) Execute(_ context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	rawLeft, ok := inputs[InputLeft]
	if !ok || models.IsUnavailable(rawLeft) {
		return map[string]any{OutputResult: false}, nil
	}

	left, err := models.Number(rawLeft)
	if err != nil {
		return nil, fmt.Errorf("compare left input: %w", err)
	}

	var right float64

	switch {
	case n.right != nil:
		right = *n.right
	default:
		rawRight, ok := inputs[InputRight]
		if !ok || models.IsUnavailable(rawRight) {
			return map[string]any{OutputResult: false}, nil
		}

		right, err = models.Number(rawRight)
		if err != nil {
			return nil, fmt.Errorf("compare right input: %w", err)
		}
	}

	var result bool

	switch n.operator {
	case "gt":
		result = left > right
	case "gte":
		result = left >= right
	case "lt":
		result = left < right
	case "lte":
		result = left <= right
	case "eq":
		result = left == right
	case "ne":
		result = left != right
	}

	return map[string]any{OutputResult: result}, nil
}

// logicalNode implements boolean AND/OR over two signal inputs.
type logicalNode struct {
	all bool
}

func NewAndNode(map[string]any) (catalog.Behavior, error) {
	return &logicalNode{all: true}, nil
}

func NewOrNode(map[string]any) (catalog.Behavior, error) {
	return &logicalNode{all: false}, nil
}

func (n *logicalNode) Execute(_ context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	a := models.Truthy(inputs[InputA])
	b := models.Truthy(inputs[InputB])

	if n.all {
		return map[string]any{OutputResult: a && b}, nil
	}

	return map[string]any{OutputResult: a || b}, nil
}

// ifNode emits the branch decision on both output ports so downstream
// wiring can pick either side.
type ifNode struct{}

func NewIfNode(map[string]any) (catalog.Behavior, error) {
	return &ifNode{}, nil
}

func (n *ifNode) Execute(_ context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	taken := models.Truthy(inputs[InputCondition])

	return map[string]any{
		OutputTrue:  taken,
		OutputFalse: !taken,
	}, nil
}
