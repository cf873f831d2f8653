// Package valuetype defines the SQL value classes an RDF term can be coerced
// to, and the rule for picking a common class across operands.
package valuetype

import (
	"fmt"
	"strings"
)

// ValueType is a coercible SQL value class.
//
// The ordinal order matters: numeric types are declared from the most
// general (Double) to the most specific (Int), so Coerce keeps the smaller
// ordinal of two numerics and an integer combined with a double widens to
// a double. Node is the untyped bottom: a bare node id.
type ValueType int

const (
	Double ValueType = iota
	Decimal
	Int
	Date
	Bool
	String
	Node
)

var names = [...]string{
	Double:  "double",
	Decimal: "decimal",
	Int:     "int",
	Date:    "date",
	Bool:    "bool",
	String:  "string",
	Node:    "node",
}

func (t ValueType) String() string {
	if t < 0 || int(t) >= len(names) {
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
	return names[t]
}

// IsNumeric reports whether t is Int, Decimal or Double.
func (t ValueType) IsNumeric() bool {
	return t == Double || t == Decimal || t == Int
}

// Column returns the nodes table column that holds values of type t.
func (t ValueType) Column() string {
	switch t {
	case String:
		return "svalue"
	case Int:
		return "ivalue"
	case Decimal, Double:
		return "dvalue"
	case Date:
		return "tvalue"
	case Bool:
		return "bvalue"
	default:
		return "id"
	}
}

// Parse returns the ValueType with the given name.
func Parse(name string) (ValueType, error) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return ValueType(i), nil
		}
	}
	return Node, fmt.Errorf("unknown value type %q", name)
}

// CoercionError reports two operand types that have no common class.
type CoercionError struct {
	Left  ValueType
	Right ValueType
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %s and %s to a common type", e.Left, e.Right)
}

// Coerce returns the common class of two operand types.
//
//   - Node on either side yields the other side
//   - equal types yield themselves
//   - two numerics yield the more general one
//   - String on either side yields String
//   - anything else (Date with Int, Bool with Date, ...) is a *CoercionError
func Coerce(a, b ValueType) (ValueType, error) {
	switch {
	case a == Node:
		return b, nil
	case b == Node:
		return a, nil
	case a == b:
		return a, nil
	case a.IsNumeric() && b.IsNumeric():
		return min(a, b), nil
	case a == String || b == String:
		return String, nil
	default:
		return Node, &CoercionError{Left: a, Right: b}
	}
}

// CoerceAll folds Coerce over types starting from Node.
func CoerceAll(types []ValueType) (ValueType, error) {
	result := Node
	for _, t := range types {
		next, err := Coerce(result, t)
		if err != nil {
			return Node, err
		}
		result = next
	}
	return result, nil
}
