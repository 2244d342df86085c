package models

import (
	"fmt"
	"strconv"
)

// Truthy reports whether a port value counts as an asserted signal.
// Unavailable inputs and nils are always falsy.
func Truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case unavailable:
		return false
	case bool:
		return value
	case string:
		return value != "" && value != "false" && value != "0"
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	default:
		return true
	}
}

// Number coerces a port value to float64. JSON decoding produces float64
// for all numbers, but config literals and test fixtures may carry native
// ints or numeric strings.
func Number(v any) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", value)
		}

		return parsed, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}
