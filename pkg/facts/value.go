package facts

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindAbsent is the zero value: the fact is not present in the snapshot.
	KindAbsent Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// falsyStrings are the string spellings treated as false regardless of case.
var falsyStrings = map[string]struct{}{
	"":      {},
	"0":     {},
	"false": {},
	"none":  {},
	"null":  {},
	"no":    {},
}

// Value is a closed variant over the fact value types a part-facts provider
// may emit. The zero Value is absent.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Bool wraps a boolean fact value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a numeric fact value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string fact value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps a collection fact value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Kind returns which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the fact was missing from the snapshot.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Truthy applies the snapshot truthiness rule:
//   - absent values are false
//   - booleans are themselves
//   - numbers are true only when strictly greater than zero
//   - strings "", "0", "false", "none", "null", "no" (case-insensitive,
//     surrounding whitespace ignored) are false; every other string is true
//   - lists are true only when non-empty
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n > 0
	case KindString:
		_, falsy := falsyStrings[strings.ToLower(strings.TrimSpace(v.s))]
		return !falsy
	case KindList:
		return len(v.list) > 0
	default:
		return false
	}
}

// AsNumber returns the numeric value of the fact.
// Numeric strings are converted; booleans map to 0/1.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsString returns the string form of the fact value.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Items returns the list elements, or nil for non-list values.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// FromAny converts a decoded JSON value into a Value.
// Unsupported types (objects) decay to their string form so that an
// unexpected payload is still truthy rather than silently absent.
func FromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return String("null")
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case string:
		return String(t)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, FromAny(item))
		}
		return List(items...)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}
