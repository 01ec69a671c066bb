package interp

import (
	"bytes"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/funvibe/axon/pkg/ast"
)

// AST builders shared by the tests in this package.

func lit(v any) *ast.Literal {
	return &ast.Literal{Value: v}
}

func litAt(v any, pos ast.Position) *ast.Literal {
	return &ast.Literal{Position: pos, Value: v}
}

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Name: name}
}

func bin(left ast.Expression, op ast.Operator, right ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Left: left, Op: op, Right: right}
}

func binAt(left ast.Expression, op ast.Operator, right ast.Expression, pos ast.Position) *ast.BinaryExpression {
	return &ast.BinaryExpression{Position: pos, Left: left, Op: op, Right: right}
}

func assign(target string, value ast.Expression) *ast.Assignment {
	return &ast.Assignment{Target: target, Value: value}
}

func program(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{Statements: stmts}
}

// newTestInterpreter builds an interpreter with a silent logger and a
// captured output buffer.
func newTestInterpreter(opts ...Option) (*Interpreter, *bytes.Buffer) {
	var out bytes.Buffer
	all := append([]Option{WithOutput(&out), WithLogger(zap.NewNop())}, opts...)
	return New(all...), &out
}

// newObservedInterpreter builds an interpreter whose log records are
// captured for assertions.
func newObservedInterpreter(opts ...Option) (*Interpreter, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	all := append([]Option{WithOutput(&bytes.Buffer{}), WithLogger(zap.New(core))}, opts...)
	return New(all...), logs
}
