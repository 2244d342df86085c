package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	truthy := []any{true, 1, int64(-1), 0.5, "yes", "true", map[string]any{}, struct{}{}}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "%v (%T)", v, v)
	}

	falsy := []any{nil, false, 0, int64(0), 0.0, "", "false", "0", Unavailable}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "%v (%T)", v, v)
	}
}

func TestNumber(t *testing.T) {
	for _, tt := range []struct {
		in   any
		want float64
	}{
		{105.5, 105.5},
		{float32(2), 2},
		{42, 42},
		{int64(-7), -7},
		{"3.14", 3.14},
	} {
		got, err := Number(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, in := range []any{nil, "abc", true, Unavailable, []int{1}} {
		_, err := Number(in)
		require.Error(t, err, "%v (%T)", in, in)
	}
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(Unavailable))
	assert.False(t, IsUnavailable(nil))
	assert.False(t, IsUnavailable("unavailable"))
	assert.Equal(t, "<unavailable>", Unavailable.String())
}

func TestDurationJSON(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"45s"`), &d))
	assert.Equal(t, 45*time.Second, d.Duration)

	// Bare numbers are milliseconds.
	require.NoError(t, json.Unmarshal([]byte(`1500`), &d))
	assert.Equal(t, 1500*time.Millisecond, d.Duration)

	require.Error(t, json.Unmarshal([]byte(`"fast"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))

	d.Duration = 2 * time.Minute
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2m0s"`, string(out))
}
