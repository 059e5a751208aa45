package client

import (
	"slices"
)

// JSONType is the kind of a decoded JSON value.
type JSONType int

const (
	TypeNull JSONType = iota
	TypeBool
	TypeNumber
	TypeString
	TypeArray
	TypeObject
	TypeUnknown
)

func (t JSONType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

func (t JSONType) article() string {
	switch t {
	case TypeArray:
		return "a list"
	case TypeObject:
		return "an object"
	default:
		return "a " + t.String()
	}
}

// TypeOf classifies a value produced by decoding JSON into any.
func TypeOf(v any) JSONType {
	switch v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBool
	case float64, float32, int, int64, int32:
		return TypeNumber
	case string:
		return TypeString
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return TypeUnknown
	}
}

// ValidateParams reports whether obj holds every key in required.
func ValidateParams(obj map[string]any, required ...string) bool {
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			return false
		}
	}
	return true
}

// ValidateTypes reports whether every key in types is present in data with
// the expected JSON type.
func ValidateTypes(data map[string]any, types map[string]JSONType) bool {
	return CheckTypes(data, types) == nil
}

// CheckTypes is like [ValidateTypes] but returns a [TypeMismatchError]
// describing the first offending key, in key order.
func CheckTypes(data map[string]any, types map[string]JSONType) error {
	keys := make([]string, 0, len(types))
	for key := range types {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		expected := types[key]

		v, ok := data[key]
		if !ok {
			return &TypeMismatchError{Key: key, Expected: expected, Missing: true}
		}

		if actual := TypeOf(v); actual != expected {
			return &TypeMismatchError{Key: key, Expected: expected, Actual: actual}
		}
	}

	return nil
}
