// Package settings loads, stores and caches the monitor settings.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/and161185/relax-alerting/internal/errs"
)

// Parsed is the result of decoding one stored field.
// When Err is set, Value holds the field default.
type Parsed[T any] struct {
	Value T
	Err   error
}

type wrapped struct {
	Name *string `json:"name"`
}

// Wrap encodes v the way the settings store keeps values: {"name": v}.
func Wrap(v string) string {
	b, _ := json.Marshal(wrapped{Name: &v})
	return string(b)
}

// Unwrap extracts the value from {"name": v}. A bare value that is not a
// wrapped object is returned as is.
func Unwrap(raw string) string {
	var w wrapped
	if err := json.Unmarshal([]byte(raw), &w); err == nil && w.Name != nil {
		return *w.Name
	}
	return raw
}

func fallback[T any](def T, key, raw string, cause error) Parsed[T] {
	return Parsed[T]{Value: def, Err: fmt.Errorf("%w: %s=%q: %w", errs.ErrConfigParse, key, raw, cause)}
}

var errMissing = errors.New("missing")

// ParseInt decodes a base-10 integer that must be at least 1.
func ParseInt(key, raw string, present bool, def int) Parsed[int] {
	if !present {
		return fallback(def, key, raw, errMissing)
	}
	s := Unwrap(raw)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback(def, key, raw, err)
	}
	if v < 1 {
		return fallback(def, key, raw, fmt.Errorf("must be >= 1"))
	}
	return Parsed[int]{Value: v}
}

// ParseFloat decodes a finite decimal number.
func ParseFloat(key, raw string, present bool, def float64) Parsed[float64] {
	if !present {
		return fallback(def, key, raw, errMissing)
	}
	v, err := strconv.ParseFloat(Unwrap(raw), 64)
	if err != nil {
		return fallback(def, key, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback(def, key, raw, fmt.Errorf("not a finite number"))
	}
	return Parsed[float64]{Value: v}
}

// ParseBool accepts only the literals "true" and "false".
func ParseBool(key, raw string, present bool, def bool) Parsed[bool] {
	if !present {
		return fallback(def, key, raw, errMissing)
	}
	switch Unwrap(raw) {
	case "true":
		return Parsed[bool]{Value: true}
	case "false":
		return Parsed[bool]{Value: false}
	default:
		return fallback(def, key, raw, fmt.Errorf("not a boolean literal"))
	}
}

// ParseString unwraps a string value.
func ParseString(key, raw string, present bool, def string) Parsed[string] {
	if !present {
		return fallback(def, key, raw, errMissing)
	}
	return Parsed[string]{Value: Unwrap(raw)}
}
