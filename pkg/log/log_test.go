package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithExecutionCarriesCorrelationFields(t *testing.T) {
	var buf bytes.Buffer

	base := slog.New(slog.NewTextHandler(&buf, nil))

	WithExecution(base, "momentum-btc", "run-abc123").Info("Block execution started", "block_id", "quotes")

	line := buf.String()
	assert.Contains(t, line, "workflow_id=momentum-btc")
	assert.Contains(t, line, "execution_id=run-abc123")
	assert.Contains(t, line, "block_id=quotes")
}
