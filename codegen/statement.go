package codegen

import (
	"fmt"
	"strings"
)

// A Statement is a single C++ statement in the generated setup function.
type Statement interface {
	Statement() string
}

// Call is a method call on a variable or a global object.
type Call struct {
	Receiver string
	// Pointer selects -> over . between the receiver and the method.
	Pointer bool
	Method  string
	Args    []Expression
}

// Statement implements Statement.
func (c Call) Statement() string {
	args := make([]string, 0, len(c.Args))
	for _, arg := range c.Args {
		args = append(args, arg.Expr())
	}
	sep := "."
	if c.Pointer {
		sep = "->"
	}
	return fmt.Sprintf("%s%s%s(%s);", c.Receiver, sep, c.Method, strings.Join(args, ", "))
}

// Assignment allocates a new object into a global pointer.
type Assignment struct {
	ID   ID
	Args []Expression
}

// Statement implements Statement.
func (a Assignment) Statement() string {
	args := make([]string, 0, len(a.Args))
	for _, arg := range a.Args {
		args = append(args, arg.Expr())
	}
	return fmt.Sprintf("%s = new %s(%s);", a.ID.Name, a.ID.Type, strings.Join(args, ", "))
}

// Variable is a generated pointer that setters can be called on.
type Variable struct {
	ID ID
}

// Expr implements Expression so variables can be passed as arguments.
func (v *Variable) Expr() string {
	return v.ID.Name
}

// Call builds a method call on the variable. Arguments are converted with ValueOf.
func (v *Variable) Call(method string, args ...interface{}) Call {
	exprs := make([]Expression, 0, len(args))
	for _, arg := range args {
		exprs = append(exprs, ValueOf(arg))
	}
	return Call{Receiver: v.ID.Name, Pointer: true, Method: method, Args: exprs}
}
