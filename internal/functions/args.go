package functions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Args are the named arguments of a call.
type Args map[string]interface{}

// String returns the string argument key, or def when absent.
func (a Args) String(key, def string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	case bool, int, int64, float64, json.Number:
		return fmt.Sprint(s), nil
	}
	return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidArgs, key, v)
}

// RequiredString is String without a default.
func (a Args) RequiredString(key string) (string, error) {
	if _, ok := a[key]; !ok {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidArgs, key)
	}
	return a.String(key, "")
}

// Number returns the numeric argument key. Numeric strings are accepted.
func (a Args) Number(key string) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidArgs, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a number: %q", ErrInvalidArgs, key, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidArgs, key, v)
}

// Int returns the integer argument key, or def when absent.
func (a Args) Int(key string, def int) (int, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	f, err := a.Number(key)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidArgs, key, f)
	}
	return int(f), nil
}

// ParseValue converts a tag argument to bool, int64 or float64 when it looks
// like one, and leaves it a string otherwise.
func ParseValue(s string) interface{} {
	switch {
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "eEnN") {
		return f
	}
	return s
}
