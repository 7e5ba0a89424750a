// ABOUTME: Explicit per-tool input contracts checked before any remote call.
// ABOUTME: Fails closed: any violation rejects the invocation, nothing is forwarded.

package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Field types understood by the contract checker.
const (
	TypeString    = "string"
	TypeInteger   = "integer"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp" // epoch milliseconds, as integer or digit string
	TypeStringArr = "array:string"
	TypeObjectArr = "array:object"
)

// Field declares one argument of a tool's input contract.
type Field struct {
	Name        string
	Type        string
	Required    bool
	Description string

	// Enum restricts a string field to a fixed value set.
	Enum []string
	// Min/Max bound an integer field. Both zero means unbounded.
	Min, Max int
	// Default is applied when an optional field is absent.
	Default any
}

// Schema is the declared input contract of one tool.
type Schema struct {
	Fields []Field
}

// Validate checks args against the contract and returns a normalized copy:
// integers coerced to int, timestamps to their millisecond string form, and
// defaults filled in for absent optional fields. Unknown keys, missing
// required fields, type mismatches, out-of-range values, and enum violations
// all reject the invocation.
func (s Schema) Validate(args map[string]any) (map[string]any, error) {
	byName := make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		byName[f.Name] = f
	}

	for name := range args {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown argument %q", name)
		}
	}

	out := make(map[string]any, len(args))
	for _, f := range s.Fields {
		raw, present := args[f.Name]
		if !present || raw == nil {
			if f.Required {
				return nil, fmt.Errorf("missing required argument %q", f.Name)
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}

		val, err := checkField(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = val
	}

	return out, nil
}

// checkField validates one present value against its field declaration.
func checkField(f Field, raw any) (any, error) {
	switch f.Type {
	case TypeString:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q must be a string", f.Name)
		}
		if len(f.Enum) > 0 {
			for _, allowed := range f.Enum {
				if str == allowed {
					return str, nil
				}
			}
			return nil, fmt.Errorf("argument %q must be one of %v", f.Name, f.Enum)
		}
		return str, nil

	case TypeInteger:
		n, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %q must be an integer", f.Name)
		}
		if f.Min != 0 || f.Max != 0 {
			if n < f.Min || n > f.Max {
				return nil, fmt.Errorf("argument %q must be between %d and %d", f.Name, f.Min, f.Max)
			}
		}
		return n, nil

	case TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("argument %q must be a boolean", f.Name)
		}
		return b, nil

	case TypeTimestamp:
		switch v := raw.(type) {
		case string:
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return nil, fmt.Errorf("argument %q must be an epoch-milliseconds timestamp", f.Name)
			}
			return v, nil
		default:
			n, err := toInt64(raw)
			if err != nil {
				return nil, fmt.Errorf("argument %q must be an epoch-milliseconds timestamp", f.Name)
			}
			return strconv.FormatInt(n, 10), nil
		}

	case TypeStringArr:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("argument %q must be an array of strings", f.Name)
		}
		strs := make([]string, len(items))
		for i, item := range items {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %q must be an array of strings", f.Name)
			}
			strs[i] = str
		}
		return strs, nil

	case TypeObjectArr:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("argument %q must be an array of objects", f.Name)
		}
		for _, item := range items {
			if _, ok := item.(map[string]any); !ok {
				return nil, fmt.Errorf("argument %q must be an array of objects", f.Name)
			}
		}
		return items, nil

	default:
		return nil, fmt.Errorf("argument %q has unsupported contract type %q", f.Name, f.Type)
	}
}

// toInt accepts the int and float64 forms JSON decoding produces, rejecting
// fractional values.
func toInt(raw any) (int, error) {
	n, err := toInt64(raw)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not an integer")
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("not an integer")
	}
}

// JSONSchema renders the contract as a JSON Schema object for tool discovery.
func (s Schema) JSONSchema() json.RawMessage {
	props := make(map[string]any, len(s.Fields))
	var required []string

	for _, f := range s.Fields {
		prop := map[string]any{}
		switch f.Type {
		case TypeString:
			prop["type"] = "string"
			if len(f.Enum) > 0 {
				prop["enum"] = f.Enum
			}
		case TypeInteger:
			prop["type"] = "integer"
			if f.Min != 0 || f.Max != 0 {
				prop["minimum"] = f.Min
				prop["maximum"] = f.Max
			}
		case TypeBoolean:
			prop["type"] = "boolean"
		case TypeTimestamp:
			prop["type"] = []string{"string", "integer"}
		case TypeStringArr:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		case TypeObjectArr:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "object"}
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Default != nil {
			prop["default"] = f.Default
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	sort.Strings(required)

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	data, err := json.Marshal(schema)
	if err != nil {
		// The schema is built from static literals; this cannot fail at runtime.
		panic(fmt.Sprintf("marshaling tool schema: %v", err))
	}
	return data
}
