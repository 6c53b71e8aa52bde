package params

import (
	"fmt"
)

// Bindings maps parameter identifiers to the concrete values
// supplied for one invocation. Insertion order is irrelevant; the
// last Set for a parameter wins.
type Bindings map[string]interface{}

// Set binds an explicit value to a parameter.
func (b Bindings) Set(p *Parameter, value interface{}) Bindings {
	b[p.Identifier] = value
	return b
}

// IsProvided reports whether the parameter has an explicit entry,
// independent of any declared default.
func (b Bindings) IsProvided(p *Parameter) bool {
	_, ok := b[p.Identifier]
	return ok
}

// Resolve determines the effective value of a parameter. An
// explicit binding wins and is checked against the validity
// predicate. Without a binding, an optional parameter falls back to
// its declared default, or to the caller supplied fallback when no
// default was declared. A required parameter left unbound fails.
func (b Bindings) Resolve(p *Parameter, fallback interface{}) (interface{}, error) {
	if value, ok := b[p.Identifier]; ok {
		if p.Validity != nil && !p.Validity(value) {
			return nil, &InvalidParameterValueError{Identifier: p.Identifier, Value: value}
		}
		return value, nil
	}
	if p.Required {
		return nil, &MissingRequiredParameterError{Identifier: p.Identifier}
	}
	if p.Default != nil {
		return p.Default, nil
	}
	return fallback, nil
}

// ResolveInt resolves a parameter expected to carry an integral
// value, coercing the numeric types a JSON or YAML decoder may
// produce.
func (b Bindings) ResolveInt(p *Parameter, fallback int) (int, error) {
	value, err := b.Resolve(p, fallback)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return fallback, nil
	}
	out, err := toInt(value)
	if err != nil {
		return 0, &InvalidParameterValueError{Identifier: p.Identifier, Value: value}
	}
	return out, nil
}

// ResolveFloat resolves a parameter expected to carry a numeric
// value.
func (b Bindings) ResolveFloat(p *Parameter, fallback float64) (float64, error) {
	value, err := b.Resolve(p, fallback)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return fallback, nil
	}
	out, err := toFloat(value)
	if err != nil {
		return 0, &InvalidParameterValueError{Identifier: p.Identifier, Value: value}
	}
	return out, nil
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("value %v is not integral", t)
		}
		return int(t), nil
	case float32:
		if t != float32(int(t)) {
			return 0, fmt.Errorf("value %v is not integral", t)
		}
		return int(t), nil
	}
	return 0, fmt.Errorf("value %v is not a number", v)
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	}
	return 0, fmt.Errorf("value %v is not a number", v)
}
