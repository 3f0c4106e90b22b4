package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind обозначает тип параметра запроса.
type Kind int

const (
	KindInvalid Kind = iota
	KindInteger
	KindReal
	KindText
	KindList
)

// String returns the lowercase kind name used in API listings.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a tagged query parameter. The zero Value has KindInvalid and is
// rejected by every parameter spec.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	list []Value
}

// Integer, Real, Text and List build tagged values.
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }
func Real(v float64) Value  { return Value{kind: KindReal, f: v} }
func Text(v string) Value   { return Value{kind: KindText, s: v} }
func List(v ...Value) Value { return Value{kind: KindList, list: v} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Str() string    { return v.s }
func (v Value) Items() []Value { return v.list }
func (v Value) IsValid() bool  { return v.kind != KindInvalid }

// Number returns the numeric value for Integer and Real kinds.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindReal:
		return v.f, true
	}
	return 0, false
}

// Arg returns the value in the form handed to the SQL driver.
func (v Value) Arg() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindReal:
		return v.f
	case KindText:
		return v.s
	}
	return nil
}

// Interface returns a plain Go representation, used for JSON persistence.
func (v Value) Interface() any {
	if v.kind == KindList {
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	}
	return v.Arg()
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindReal:
		return fmt.Sprintf("%g", v.f)
	case KindText:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<invalid>"
}

// Params maps parameter names to values.
type Params map[string]Value

// Request names an operation and carries its parameters.
type Request struct {
	Operation string
	Params    Params
}

// Spec declares a parameter and the kinds it accepts.
type Spec struct {
	Name    string
	Kinds   []Kind
	Default *Value
}

// Accepts reports whether v has one of the declared kinds.
func (s Spec) Accepts(v Value) bool {
	for _, k := range s.Kinds {
		if v.kind == k {
			return true
		}
	}
	return false
}

// Check resolves every spec against params. It returns false when a required
// parameter is missing or has a kind the spec does not accept.
func Check(specs []Spec, params Params) (Params, bool) {
	resolved := make(Params, len(specs))
	for _, spec := range specs {
		v, ok := params[spec.Name]
		if !ok {
			if spec.Default == nil {
				return nil, false
			}
			v = *spec.Default
		}
		if !spec.Accepts(v) {
			return nil, false
		}
		resolved[spec.Name] = v
	}
	return resolved, true
}

// FromJSON converts a value decoded by encoding/json with UseNumber into a
// tagged Value. Integral numbers become Integer, other numbers Real, strings
// Text and arrays List. Booleans, objects, null and integral literals out of
// int64 range give an invalid Value, which every parameter spec rejects.
func FromJSON(v any) Value {
	switch t := v.(type) {
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			i, err := t.Int64()
			if err != nil {
				return Value{}
			}
			return Integer(i)
		}
		if f, err := t.Float64(); err == nil {
			return Real(f)
		}
	case string:
		return Text(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromJSON(item)
		}
		return List(items...)
	}
	return Value{}
}
