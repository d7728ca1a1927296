// Package jsonutil provides small shared JSON parsing helpers: wrapping
// unmarshal errors with context, and coercing loosely-typed JSON values
// (as produced by map[string]interface{} decoding) to their string form.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v interface{}, context string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// ToString converts a loosely-typed JSON value to a string representation.
// Handles string, float64 (formatted as integer for whole numbers), bool,
// nil, and falls back to fmt's default formatting for anything else.
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// Format as integer for whole numbers, otherwise as float
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
