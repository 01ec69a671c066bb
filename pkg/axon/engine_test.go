package axon

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/interp"
)

func newTestEngine() (*Engine, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(WithOutput(out), WithLogger(zap.NewNop())), out
}

func TestEngineExecute(t *testing.T) {
	engine, out := newTestEngine()
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.Assignment{Target: "private.name", Value: &ast.Literal{Value: "world"}},
		&ast.PrintStatement{Message: &ast.StringTemplate{Parts: []ast.TemplatePart{
			ast.Text("hello "),
			ast.Embed("{private.name}", &ast.Identifier{Name: "private.name"}),
		}}},
	}}
	require.NoError(t, engine.Execute(prog))
	assert.Equal(t, "hello world\n", out.String())
}

func TestEngineSetGet(t *testing.T) {
	engine, _ := newTestEngine()
	require.NoError(t, engine.Set("system.api_key", "secret"))

	got, err := engine.Get("system.api_key")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	_, err = engine.Get("private.absent")
	assert.Error(t, err)
}

func TestEngineRegisterFunction(t *testing.T) {
	engine, _ := newTestEngine()
	require.NoError(t, engine.RegisterFunction("double", func(ctx *interp.Context, args map[string]any) (any, error) {
		n, _ := args["0"].(int64)
		return n * 2, nil
	}, &interp.FunctionMeta{Doc: "doubles its argument"}))

	prog := &ast.Program{Statements: []ast.Statement{
		&ast.FunctionCall{Name: "double", Args: map[string]ast.Expression{
			"0": &ast.Literal{Value: int64(21)},
		}},
	}}
	require.NoError(t, engine.Execute(prog))
	assert.Equal(t, int64(42), engine.LastValue())
}

func TestEngineRegisterReasoner(t *testing.T) {
	engine, _ := newTestEngine()
	engine.RegisterReasoner(interp.ReasonerFunc(
		func(ctx context.Context, messages []interp.Message, opts interp.ReasonOptions) (any, error) {
			return map[string]any{"content": "reasoned"}, nil
		}))

	prog := &ast.Program{Statements: []ast.Statement{
		&ast.ReasonStatement{Prompt: &ast.Literal{Value: "think"}, Target: "result"},
	}}
	require.NoError(t, engine.Execute(prog))

	got, err := engine.Get("private.result")
	require.NoError(t, err)
	assert.Equal(t, "reasoned", got)
}

func TestEngineRegisterHook(t *testing.T) {
	engine, _ := newTestEngine()
	var fired int
	engine.RegisterHook(interp.BeforeStatement, func(interp.HookPayload) { fired++ })

	prog := &ast.Program{Statements: []ast.Statement{
		&ast.Assignment{Target: "private.a", Value: &ast.Literal{Value: int64(1)}},
		&ast.Assignment{Target: "private.b", Value: &ast.Literal{Value: int64(2)}},
	}}
	require.NoError(t, engine.Execute(prog))
	assert.Equal(t, 2, fired)
}

func TestRunRefusesParseErrors(t *testing.T) {
	engine, _ := newTestEngine()
	result := ParseResult{
		Program: &ast.Program{},
		Diagnostics: []Diagnostic{
			{Message: "unexpected token", Line: 2, Column: 7, Severity: "error"},
		},
	}
	err := engine.Run(result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token")
	assert.Contains(t, err.Error(), "line 2, column 7")
}

func TestRunAllowsWarnings(t *testing.T) {
	engine, _ := newTestEngine()
	result := ParseResult{
		Program: &ast.Program{Statements: []ast.Statement{
			&ast.Assignment{Target: "private.x", Value: &ast.Literal{Value: int64(1)}},
		}},
		Diagnostics: []Diagnostic{
			{Message: "deprecated syntax", Severity: "warning"},
		},
	}
	require.NoError(t, engine.Run(result))

	got, err := engine.Get("private.x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestRunWithoutProgram(t *testing.T) {
	engine, _ := newTestEngine()
	assert.Error(t, engine.Run(ParseResult{}))
}

func TestHasErrors(t *testing.T) {
	assert.False(t, ParseResult{}.HasErrors())
	assert.False(t, ParseResult{Diagnostics: []Diagnostic{{Severity: "warning"}}}.HasErrors())
	assert.True(t, ParseResult{Diagnostics: []Diagnostic{{Severity: "warning"}, {Severity: "error"}}}.HasErrors())
}

func TestEngineExecutionID(t *testing.T) {
	a, _ := newTestEngine()
	b, _ := newTestEngine()
	assert.NotEmpty(t, a.ExecutionID())
	assert.NotEqual(t, a.ExecutionID(), b.ExecutionID())
}
