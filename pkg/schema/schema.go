// Package schema validates decoded request values (params, query, payload)
// against declarative schemas. Validation converts values where possible, so
// the numeric string "5" validated by Number() comes back as the number 5.
// Validation stops at the first failure.
package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// decimal matches the numeric strings Number converts. Go-only syntax such as
// hex floats and digit separators is rejected.
var decimal = regexp.MustCompile(`(?i)^\s*[+-]?(\d+(\.\d*)?|\.\d+)(e[+-]?\d+)?\s*$`)

// rootLabel names the value being validated when it has no key.
const rootLabel = "value"

// Schema validates a value and returns its converted form.
type Schema interface {
	Validate(value any) (any, error)
	check(label string, value any, present bool) (any, error)
}

// Error describes a validation failure.
type Error struct {
	Path    []string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Key returns the dotted path of the failing value.
func (e *Error) Key() string {
	return strings.Join(e.Path, ".")
}

func fail(label, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf("%q ", label) + fmt.Sprintf(format, args...)}
}

// NumberSchema accepts numbers and numeric strings.
type NumberSchema struct {
	required bool
	integer  bool
}

// Number returns a schema accepting any number.
func Number() *NumberSchema {
	return &NumberSchema{}
}

// Required makes the value mandatory.
func (s *NumberSchema) Required() *NumberSchema {
	s.required = true
	return s
}

// Integer rejects numbers with a fractional part.
func (s *NumberSchema) Integer() *NumberSchema {
	s.integer = true
	return s
}

func (s *NumberSchema) Validate(value any) (any, error) {
	return s.check(rootLabel, value, value != nil)
}

func (s *NumberSchema) check(label string, value any, present bool) (any, error) {
	if !present {
		if s.required {
			return nil, fail(label, "is required")
		}
		return nil, nil
	}

	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fail(label, "must be a number")
		}
		n = f
	case string:
		if !decimal.MatchString(v) {
			return nil, fail(label, "must be a number")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fail(label, "must be a number")
		}
		n = f
	default:
		return nil, fail(label, "must be a number")
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fail(label, "must be a number")
	}
	if s.integer && n != math.Trunc(n) {
		return nil, fail(label, "must be an integer")
	}
	return n, nil
}

// StringSchema accepts non-empty strings.
type StringSchema struct {
	required   bool
	allowEmpty bool
}

// String returns a schema accepting strings.
func String() *StringSchema {
	return &StringSchema{}
}

// Required makes the value mandatory.
func (s *StringSchema) Required() *StringSchema {
	s.required = true
	return s
}

// AllowEmpty accepts the empty string.
func (s *StringSchema) AllowEmpty() *StringSchema {
	s.allowEmpty = true
	return s
}

func (s *StringSchema) Validate(value any) (any, error) {
	return s.check(rootLabel, value, value != nil)
}

func (s *StringSchema) check(label string, value any, present bool) (any, error) {
	if !present {
		if s.required {
			return nil, fail(label, "is required")
		}
		return nil, nil
	}
	str, ok := value.(string)
	if !ok {
		return nil, fail(label, "must be a string")
	}
	if str == "" && !s.allowEmpty {
		return nil, fail(label, "is not allowed to be empty")
	}
	return str, nil
}

// ObjectSchema accepts maps whose keys satisfy the configured child schemas.
// Keys without a schema are rejected unless Unknown is set.
type ObjectSchema struct {
	keys     map[string]Schema
	unknown  bool
	required bool
}

// Object returns a schema for an object with the given keys.
func Object(keys map[string]Schema) *ObjectSchema {
	return &ObjectSchema{keys: keys}
}

// Unknown allows keys that have no schema. They are passed through untouched.
func (s *ObjectSchema) Unknown() *ObjectSchema {
	s.unknown = true
	return s
}

// Required makes the value mandatory.
func (s *ObjectSchema) Required() *ObjectSchema {
	s.required = true
	return s
}

func (s *ObjectSchema) Validate(value any) (any, error) {
	return s.check(rootLabel, value, value != nil)
}

func (s *ObjectSchema) check(label string, value any, present bool) (any, error) {
	if !present {
		if s.required {
			return nil, fail(label, "is required")
		}
		return nil, nil
	}

	obj, ok := asObject(value)
	if !ok {
		return nil, fail(label, "must be an object")
	}

	result := make(map[string]any, len(obj))
	for _, key := range slices.Sorted(maps.Keys(s.keys)) {
		raw, present := obj[key]
		converted, err := s.keys[key].check(key, raw, present)
		if err != nil {
			inner := err.(*Error)
			return nil, &Error{
				Path:    append([]string{key}, inner.Path...),
				Message: fmt.Sprintf("child %q fails because [%s]", key, inner.Message),
			}
		}
		if present {
			result[key] = converted
		}
	}

	for _, key := range slices.Sorted(maps.Keys(obj)) {
		if _, known := s.keys[key]; known {
			continue
		}
		if !s.unknown {
			return nil, &Error{Path: []string{key}, Message: fmt.Sprintf("%q is not allowed", key)}
		}
		result[key] = obj[key]
	}

	return result, nil
}

func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		obj := make(map[string]any, len(v))
		for k, s := range v {
			obj[k] = s
		}
		return obj, true
	case map[string][]string:
		obj := make(map[string]any, len(v))
		for k, s := range v {
			if len(s) == 1 {
				obj[k] = s[0]
			} else {
				obj[k] = s
			}
		}
		return obj, true
	default:
		return nil, false
	}
}
