package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// An Expression is a fragment of C++ that evaluates to a value.
type Expression interface {
	Expr() string
}

// Raw is an expression that is emitted verbatim, such as an enum constant.
type Raw string

// Expr implements Expression.
func (r Raw) Expr() string {
	return string(r)
}

// Type is a fully qualified C++ class name.
type Type string

// Namespace is a C++ namespace that classes and enums live in.
type Namespace string

// Class returns the qualified type of a class inside the namespace.
func (ns Namespace) Class(name string) Type {
	if ns == "" {
		return Type(name)
	}
	return Type(string(ns) + "::" + name)
}

// Enum returns the qualified constant of an enum value inside the namespace.
func (ns Namespace) Enum(value string) Raw {
	if ns == "" {
		return Raw(value)
	}
	return Raw(string(ns) + "::" + value)
}

// GlobalNamespace holds types that are not namespaced, like the ESP-IDF driver enums.
const GlobalNamespace = Namespace("")

// ID identifies a generated variable and the class it points to.
type ID struct {
	Name string
	Type Type
}

func (id ID) String() string {
	return fmt.Sprintf("%s (%s)", id.Name, id.Type)
}

// ValueOf converts a Go value into an Expression.
func ValueOf(v interface{}) Expression {
	switch x := v.(type) {
	case Expression:
		return x
	case int:
		return Raw(strconv.Itoa(x))
	case int64:
		return Raw(strconv.FormatInt(x, 10))
	case uint32:
		return Raw(strconv.FormatUint(uint64(x), 10))
	case float64:
		return Raw(formatFloat(x))
	case bool:
		return Raw(strconv.FormatBool(x))
	case string:
		return Raw(strconv.Quote(x))
	default:
		panic(fmt.Sprintf("cannot convert %v (%T) to a C++ expression", v, v))
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "f"
}
