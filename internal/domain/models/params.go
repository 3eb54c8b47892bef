package models

import (
	"fmt"
	"sort"
)

// ParamType declares the primitive type of a scan parameter. Nested
// structures are not allowed: every entry is a number, boolean or string.
type ParamType string

const (
	ParamNumber ParamType = "number"
	ParamBool   ParamType = "bool"
	ParamString ParamType = "string"
)

// ParamSpec declares one named entry of a pattern's parameter schema.
type ParamSpec struct {
	Name     string
	Type     ParamType
	Required bool
	Default  interface{}
}

// ScanParams is the immutable named threshold/config set for one run.
// Values are validated against a pattern schema before any fetch; after
// that only the typed getters are used.
type ScanParams struct {
	values map[string]interface{}
}

// NewScanParams copies the given map into an immutable parameter set.
// Numeric JSON/YAML values arrive as float64 or int; both are accepted.
func NewScanParams(values map[string]interface{}) ScanParams {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		m[k] = v
	}
	return ScanParams{values: m}
}

// Validate checks the set against a schema: required entries present,
// every present entry of the declared primitive type, no unknown entries.
// Any violation wraps ErrBadParams and is fatal for the run.
func (p ScanParams) Validate(schema []ParamSpec) error {
	known := make(map[string]ParamSpec, len(schema))
	for _, spec := range schema {
		known[spec.Name] = spec
		v, ok := p.values[spec.Name]
		if !ok {
			if spec.Required {
				return fmt.Errorf("%w: missing required parameter %q", ErrBadParams, spec.Name)
			}
			continue
		}
		if err := checkType(spec, v); err != nil {
			return err
		}
	}
	for name := range p.values {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%w: unknown parameter %q", ErrBadParams, name)
		}
	}
	return nil
}

func checkType(spec ParamSpec, v interface{}) error {
	switch spec.Type {
	case ParamNumber:
		if _, ok := asFloat(v); !ok {
			return fmt.Errorf("%w: parameter %q must be a number, got %T", ErrBadParams, spec.Name, v)
		}
	case ParamBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: parameter %q must be a boolean, got %T", ErrBadParams, spec.Name, v)
		}
	case ParamString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: parameter %q must be a string, got %T", ErrBadParams, spec.Name, v)
		}
	default:
		return fmt.Errorf("%w: parameter %q has unsupported type %q", ErrBadParams, spec.Name, spec.Type)
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Number returns a numeric parameter, falling back to the schema default
// the caller baked in. Call only after Validate.
func (p ScanParams) Number(name string, def float64) float64 {
	if v, ok := p.values[name]; ok {
		if f, ok := asFloat(v); ok {
			return f
		}
	}
	return def
}

// Int returns a numeric parameter truncated to int.
func (p ScanParams) Int(name string, def int) int {
	return int(p.Number(name, float64(def)))
}

// Bool returns a boolean parameter.
func (p ScanParams) Bool(name string, def bool) bool {
	if v, ok := p.values[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// String returns a string parameter.
func (p ScanParams) String(name, def string) string {
	if v, ok := p.values[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Names returns the sorted parameter names, for logging and audit.
func (p ScanParams) Names() []string {
	out := make([]string, 0, len(p.values))
	for k := range p.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
