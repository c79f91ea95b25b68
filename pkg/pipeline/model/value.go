package model

import (
	"fmt"
	"strconv"
)

// ValueKind tells which variant a Value is.
type ValueKind int

const (
	LiteralKind ValueKind = iota + 1
	ParameterKind
	OutputKind
)

func (k ValueKind) String() string {
	switch k {
	case LiteralKind:
		return "literal"
	case ParameterKind:
		return "parameter"
	case OutputKind:
		return "output"
	default:
		return "unknown"
	}
}

// Value is a step argument. It is either a Literal, a reference to a pipeline
// parameter (ParamRef) or a reference to another step's output (OutputRef).
//
// The set of implementations is closed.
type Value interface {
	Kind() ValueKind
	String() string

	isValue()
}

// Literal is a value known when the pipeline is defined.
type Literal string

func (Literal) Kind() ValueKind  { return LiteralKind }
func (l Literal) String() string { return string(l) }
func (Literal) isValue()         {}

// Int returns the literal form of an integer argument.
func Int(i int) Literal {
	return Literal(strconv.Itoa(i))
}

// Literals converts plain strings into values.
func Literals(ss ...string) []Value {
	values := make([]Value, 0, len(ss))
	for _, s := range ss {
		values = append(values, Literal(s))
	}

	return values
}

// ParamRef points at a pipeline parameter. Its content is substituted by the
// orchestrator when the pipeline is submitted.
type ParamRef struct {
	Name string
}

func (ParamRef) Kind() ValueKind { return ParameterKind }

func (p ParamRef) String() string {
	return fmt.Sprintf("{{params.%s}}", p.Name)
}

func (ParamRef) isValue() {}

// OutputRef points at a declared output of a step. It is unresolved until the
// step has run, so it can only be wired into the arguments of a later step.
type OutputRef struct {
	Step   string
	Output string
}

func (OutputRef) Kind() ValueKind { return OutputKind }

func (o OutputRef) String() string {
	return fmt.Sprintf("{{steps.%s.outputs.%s}}", o.Step, o.Output)
}

func (OutputRef) isValue() {}

var (
	_ Value = Literal("")
	_ Value = ParamRef{}
	_ Value = OutputRef{}
)
