package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avollo/tradewind/pkg/models"
)

func block(id string, category models.Category, inputs, outputs []string) *models.Block {
	return &models.Block{
		ID:       id,
		Name:     id,
		Category: category,
		Type:     "static",
		Inputs:   inputs,
		Outputs:  outputs,
	}
}

func connect(from string, fromIdx int, to string, toIdx int) *models.Connection {
	return &models.Connection{
		From: models.Endpoint{BlockID: from, Index: fromIdx},
		To:   models.Endpoint{BlockID: to, Index: toIdx},
	}
}

func TestBuildLinearWorkflow(t *testing.T) {
	wf := &models.Workflow{
		ID:   "wf-linear",
		Name: "linear",
		Blocks: []*models.Block{
			block("price", models.CategorySource, nil, []string{"value"}),
			block("check", models.CategoryCondition, []string{"value"}, []string{"result"}),
			block("order", models.CategoryAction, []string{"signal"}, []string{"order"}),
		},
		Connections: []*models.Connection{
			connect("price", 0, "check", 0),
			connect("check", 0, "order", 0),
		},
	}

	order, err := Build(wf)
	require.NoError(t, err)
	assert.Equal(t, ExecutionOrder{"price", "check", "order"}, order)
}

func TestBuildContainsEveryBlockOnceAndRespectsEdges(t *testing.T) {
	// Diamond: a feeds b and c, both feed d.
	wf := &models.Workflow{
		ID:   "wf-diamond",
		Name: "diamond",
		Blocks: []*models.Block{
			block("d", models.CategoryAction, []string{"x", "y"}, []string{"out"}),
			block("b", models.CategoryCondition, []string{"in"}, []string{"out"}),
			block("c", models.CategoryCondition, []string{"in"}, []string{"out"}),
			block("a", models.CategorySource, nil, []string{"out"}),
		},
		Connections: []*models.Connection{
			connect("a", 0, "b", 0),
			connect("a", 0, "c", 0),
			connect("b", 0, "d", 0),
			connect("c", 0, "d", 1),
		},
	}

	order, err := Build(wf)
	require.NoError(t, err)
	require.Len(t, order, 4)

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	assert.Less(t, position["a"], position["b"])
	assert.Less(t, position["a"], position["c"])
	assert.Less(t, position["b"], position["d"])
	assert.Less(t, position["c"], position["d"])
}

func TestBuildIsDeterministic(t *testing.T) {
	wf := &models.Workflow{
		ID:   "wf-ready-tie",
		Name: "tie",
		Blocks: []*models.Block{
			block("t2", models.CategoryTrigger, nil, []string{"signal"}),
			block("t1", models.CategoryTrigger, nil, []string{"signal"}),
			block("t3", models.CategoryTrigger, nil, []string{"signal"}),
		},
	}

	first, err := Build(wf)
	require.NoError(t, err)

	for range 10 {
		again, err := Build(wf)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Ties break by declaration order.
	assert.Equal(t, ExecutionOrder{"t2", "t1", "t3"}, first)
}

func TestBuildDetectsCycle(t *testing.T) {
	wf := &models.Workflow{
		ID:   "wf-cycle",
		Name: "cycle",
		Blocks: []*models.Block{
			block("a", models.CategoryCondition, []string{"in"}, []string{"out"}),
			block("b", models.CategoryCondition, []string{"in"}, []string{"out"}),
		},
		Connections: []*models.Connection{
			connect("a", 0, "b", 0),
			connect("b", 0, "a", 0),
		},
	}

	order, err := Build(wf)
	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, IsCyclicGraphError(err))

	var cyclic *CyclicGraphError
	require.ErrorAs(t, err, &cyclic)
	assert.ElementsMatch(t, []string{"a", "b"}, cyclic.Remaining)
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		workflow *models.Workflow
	}{
		{
			name: "duplicate block id",
			workflow: &models.Workflow{
				ID: "wf", Name: "wf",
				Blocks: []*models.Block{
					block("a", models.CategoryTrigger, nil, []string{"signal"}),
					block("a", models.CategoryTrigger, nil, []string{"signal"}),
				},
			},
		},
		{
			name: "missing source block",
			workflow: &models.Workflow{
				ID: "wf", Name: "wf",
				Blocks: []*models.Block{
					block("b", models.CategoryAction, []string{"signal"}, nil),
				},
				Connections: []*models.Connection{connect("ghost", 0, "b", 0)},
			},
		},
		{
			name: "missing destination block",
			workflow: &models.Workflow{
				ID: "wf", Name: "wf",
				Blocks: []*models.Block{
					block("a", models.CategoryTrigger, nil, []string{"signal"}),
				},
				Connections: []*models.Connection{connect("a", 0, "ghost", 0)},
			},
		},
		{
			name: "output index out of range",
			workflow: &models.Workflow{
				ID: "wf", Name: "wf",
				Blocks: []*models.Block{
					block("a", models.CategoryTrigger, nil, []string{"signal"}),
					block("b", models.CategoryAction, []string{"signal"}, nil),
				},
				Connections: []*models.Connection{connect("a", 3, "b", 0)},
			},
		},
		{
			name: "input index out of range",
			workflow: &models.Workflow{
				ID: "wf", Name: "wf",
				Blocks: []*models.Block{
					block("a", models.CategoryTrigger, nil, []string{"signal"}),
					block("b", models.CategoryAction, []string{"signal"}, nil),
				},
				Connections: []*models.Connection{connect("a", 0, "b", 2)},
			},
		},
		{
			name: "unknown category",
			workflow: &models.Workflow{
				ID: "wf", Name: "wf",
				Blocks: []*models.Block{
					block("a", models.Category("mystery"), nil, []string{"signal"}),
				},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.workflow)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			// A bad definition must also never produce an order.
			order, err := Build(tc.workflow)
			require.Error(t, err)
			assert.Nil(t, order)
		})
	}
}
