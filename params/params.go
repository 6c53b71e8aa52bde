// Package params holds the catalog of named operation parameters
// used by the spectral transformations and resolves their effective
// values per invocation.
package params

import (
	"fmt"
)

// Parameter is one named, typed configuration slot of a spectral
// operation. Parameters are immutable once constructed and shared
// process-wide through the registry.
type Parameter struct {
	Identifier string
	Name       string
	Required   bool
	Default    interface{}
	Validity   func(interface{}) bool
}

func (p *Parameter) String() string {
	return p.Identifier
}

// CreateRequiredParameter builds a parameter that has to be bound
// explicitly on every invocation.
func CreateRequiredParameter(identifier, name string) (*Parameter, error) {
	if len(identifier) == 0 {
		return nil, fmt.Errorf("parameter identifier is empty")
	}
	if len(name) == 0 {
		return nil, fmt.Errorf("parameter name is empty")
	}
	return &Parameter{Identifier: identifier, Name: name, Required: true}, nil
}

// CreateOptionalParameter builds a parameter with a declared default
// and an optional validity predicate evaluated against any supplied
// value at resolution time.
func CreateOptionalParameter(identifier, name string, def interface{}, validity func(interface{}) bool) (*Parameter, error) {
	if len(identifier) == 0 {
		return nil, fmt.Errorf("parameter identifier is empty")
	}
	if len(name) == 0 {
		return nil, fmt.Errorf("parameter name is empty")
	}
	return &Parameter{Identifier: identifier, Name: name, Default: def, Validity: validity}, nil
}

// newParameter is the internal constructor for catalog entries whose
// identifiers are literals and cannot fail validation.
func newParameter(identifier, name string, required bool, def interface{}, validity func(interface{}) bool) *Parameter {
	return &Parameter{Identifier: identifier, Name: name, Required: required, Default: def, Validity: validity}
}

// MissingRequiredParameterError reports a required parameter left
// unbound at resolution time.
type MissingRequiredParameterError struct {
	Identifier string
}

func (e *MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("required parameter %s is not provided", e.Identifier)
}

// InvalidParameterValueError reports a bound value rejected by the
// parameter's validity predicate or of an unusable type.
type InvalidParameterValueError struct {
	Identifier string
	Value      interface{}
}

func (e *InvalidParameterValueError) Error() string {
	return fmt.Sprintf("invalid value %v for parameter %s", e.Value, e.Identifier)
}
