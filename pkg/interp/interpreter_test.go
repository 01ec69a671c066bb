package interp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/diag"
)

func TestExecuteProgramFullRun(t *testing.T) {
	in, out := newTestInterpreter()
	prog := program(
		assign("private.greeting", lit("hello")),
		assign("private.count", bin(lit(int64(2)), ast.OpMul, lit(int64(3)))),
		&ast.PrintStatement{Message: &ast.StringTemplate{Parts: []ast.TemplatePart{
			ast.Embed("{private.greeting}", ident("private.greeting")),
			ast.Text(" x"),
			ast.Embed("{private.count}", ident("private.count")),
		}}},
	)
	if err := in.ExecuteProgram(prog); err != nil {
		t.Fatalf("ExecuteProgram: %v", err)
	}
	if got := out.String(); got != "hello x6\n" {
		t.Errorf("output = %q, want %q", got, "hello x6\n")
	}
}

func TestExecuteProgramAbortsOnFirstError(t *testing.T) {
	in, _ := newTestInterpreter()
	prog := program(
		assign("private.before", lit(int64(1))),
		assign("private.bad", bin(lit(int64(1)), ast.OpDiv, lit(int64(0)))),
		assign("private.after", lit(int64(1))),
	)
	err := in.ExecuteProgram(prog)
	if !diag.IsKind(err, diag.KindDivisionByZero) {
		t.Fatalf("err = %v, want DivisionByZero", err)
	}

	// State mutated before the failure persists; later statements never ran.
	if !in.Context().Has("private.before") {
		t.Error("state from before the error was lost")
	}
	if in.Context().Has("private.after") {
		t.Error("statement after the error still ran")
	}
}

func TestExecuteProgramErrorForcesErrorLevel(t *testing.T) {
	in, logs := newObservedInterpreter()
	failing := program(assign("private.x", bin(lit(int64(1)), ast.OpDiv, lit(int64(0)))))
	if err := in.ExecuteProgram(failing); err == nil {
		t.Fatal("expected an error")
	}

	// Subsequent info-level emissions are suppressed by the forced threshold.
	in.emitLog(ast.LevelInfo, "post-failure info")
	in.emitLog(ast.LevelError, "post-failure error")
	if logs.FilterMessageSnippet("post-failure info").Len() != 0 {
		t.Error("info log passed after the threshold was forced to error")
	}
	if logs.FilterMessageSnippet("post-failure error").Len() != 1 {
		t.Error("error log was suppressed")
	}
}

func TestExecutionIDsAreUnique(t *testing.T) {
	a := New(WithLogger(zap.NewNop()))
	b := New(WithLogger(zap.NewNop()))
	if a.ExecutionID() == "" || a.ExecutionID() == b.ExecutionID() {
		t.Errorf("execution IDs %q and %q are not distinct", a.ExecutionID(), b.ExecutionID())
	}
}

func TestCancellationStopsBetweenStatements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := New(WithOutput(&bytes.Buffer{}), WithLogger(zap.NewNop()), WithExecContext(ctx))

	cancelAfterFirst := &ast.FunctionCall{Name: "stop"}
	in.Functions().Register("stop", func(c *Context, args map[string]any) (any, error) {
		cancel()
		return nil, nil
	}, nil)

	prog := program(
		cancelAfterFirst,
		assign("private.unreached", lit(int64(1))),
	)
	err := in.ExecuteProgram(prog)
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want a wrapped context.Canceled", err)
	}
	if in.Context().Has("private.unreached") {
		t.Error("statement after cancellation still ran")
	}
}

func TestHookPanicDoesNotAbortExecution(t *testing.T) {
	in, _ := newTestInterpreter()
	in.Hooks().Register(BeforeStatement, func(HookPayload) { panic("observer bug") })

	if err := in.ExecuteProgram(program(assign("private.x", lit(int64(1))))); err != nil {
		t.Fatalf("ExecuteProgram: %v", err)
	}
	if !in.Context().Has("private.x") {
		t.Error("statement did not complete after a panicking hook")
	}
}

func TestWithContextPreseedsState(t *testing.T) {
	ctx := NewContext()
	if err := ctx.Set("system.env", "prod"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	in := New(WithOutput(&bytes.Buffer{}), WithLogger(zap.NewNop()), WithContext(ctx))

	if err := in.ExecuteProgram(program(assign("private.copy", ident("system.env")))); err != nil {
		t.Fatalf("ExecuteProgram: %v", err)
	}
	got, err := in.Context().Get("private.copy")
	if err != nil || got != "prod" {
		t.Errorf("Get = %v, %v", got, err)
	}
}

func TestZapLevelMapping(t *testing.T) {
	tests := []struct {
		in   ast.LogLevel
		want zapcore.Level
	}{
		{ast.LevelDebug, zapcore.DebugLevel},
		{ast.LevelInfo, zapcore.InfoLevel},
		{ast.LevelWarn, zapcore.WarnLevel},
		{ast.LevelError, zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := zapLevel(tt.in); got != tt.want {
			t.Errorf("zapLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
