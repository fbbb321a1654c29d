// Package cel compiles CEL expressions that select benchmarks by their
// attributes.
package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Variables declares the attributes a filter may reference and their types.
var Variables = map[string]*cel.Type{
	"name":    cel.StringType,
	"group":   cel.StringType,
	"surface": cel.StringType,
	"variant": cel.StringType,
	"batch":   cel.BoolType,
}

// Filter is a compiled CEL expression evaluated against benchmark attributes.
type Filter struct {
	expr    string
	program cel.Program
}

// Compile parses, type-checks and compiles expr. The expression must
// evaluate to a bool; referencing an undeclared attribute is a compile
// error.
func Compile(expr string) (*Filter, error) {
	opts := make([]cel.EnvOption, 0, len(Variables))
	for k, t := range Variables {
		opts = append(opts, cel.Variable(k, t))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel compile: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(types.BoolType) {
		return nil, fmt.Errorf("cel compile: %q evaluates to %s, want bool", expr, ast.OutputType())
	}

	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel program: %w", err)
	}

	return &Filter{expr: expr, program: prog}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the filter against attrs. Evaluation errors, such as a
// missing attribute, are returned.
func (f *Filter) Match(attrs map[string]any) (bool, error) {
	out, _, err := f.program.Eval(attrs)
	if err != nil {
		return false, fmt.Errorf("cel eval %q: %w", f.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("cel eval %q: result is %s", f.expr, out.Type())
	}
	return b, nil
}
