package config

import (
	"fmt"
	"time"
)

// Stored values arrive as JSON (float64 numbers) or YAML (int numbers), so
// the section setters accept every numeric form either decoder produces.

func boolValue(key string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("invalid value type for %s: expected bool, got %T", key, value)
	}
	return b, nil
}

func stringValue(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
	}
	return s, nil
}

func intValue(key string, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}

// durationValue accepts a duration string ("90s") or a number of nanoseconds.
func durationValue(key string, value any) (time.Duration, error) {
	if s, ok := value.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	}
	n, err := intValue(key, value)
	if err != nil {
		return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
	}
	return time.Duration(n), nil
}
