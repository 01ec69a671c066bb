// Package interp implements the Axon tree-walking interpreter: the scoped
// runtime Context, the function and hook registries, expression evaluation,
// statement execution and the top-level program driver.
package interp

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/diag"
)

// Interpreter executes one Program at a time against a Context it owns
// exclusively. Execution is strictly sequential; the only suspension point
// is the Reasoner round-trip inside a reason statement.
type Interpreter struct {
	execCtx   context.Context
	out       io.Writer
	logger    *zap.Logger
	level     zap.AtomicLevel
	context   *Context
	functions *FunctionRegistry
	hooks     *HookRegistry

	executionID string
	lastValue   any
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithOutput sets the plain output sink used by print statements.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// WithLogger replaces the default console logger. The interpreter still
// controls the minimum severity through its own atomic level, so the given
// logger should not pre-filter below debug.
func WithLogger(logger *zap.Logger) Option {
	return func(in *Interpreter) { in.logger = logger }
}

// WithExecContext sets the context.Context checked between statements and
// passed to the Reasoner. Cancellation aborts execution at the next
// statement boundary.
func WithExecContext(ctx context.Context) Option {
	return func(in *Interpreter) { in.execCtx = ctx }
}

// WithContext supplies an existing runtime Context, e.g. to pre-seed system
// scope variables or resources before execution.
func WithContext(c *Context) Option {
	return func(in *Interpreter) {
		if c != nil {
			in.context = c
		}
	}
}

// WithFunctionRegistry supplies a shared function registry. Builtins are
// still registered on top of it.
func WithFunctionRegistry(r *FunctionRegistry) Option {
	return func(in *Interpreter) {
		if r != nil {
			in.functions = r
		}
	}
}

// WithHookRegistry supplies a pre-populated hook registry.
func WithHookRegistry(r *HookRegistry) Option {
	return func(in *Interpreter) {
		if r != nil {
			in.hooks = r
		}
	}
}

// New creates an interpreter with a fresh Context, a unique execution ID and
// an info-level log threshold.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		execCtx:     context.Background(),
		out:         os.Stdout,
		level:       zap.NewAtomicLevelAt(zapcore.InfoLevel),
		context:     NewContext(),
		functions:   NewFunctionRegistry(),
		hooks:       NewHookRegistry(),
		executionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		encCfg := zap.NewDevelopmentEncoderConfig()
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(in.out), in.level)
		in.logger = zap.New(core)
	} else {
		in.logger = in.logger.WithOptions(zap.IncreaseLevel(in.level))
	}
	in.logger = in.logger.With(zap.String("execution_id", in.executionID))
	in.hooks.SetLogger(in.logger)
	in.registerBuiltins()
	return in
}

// Context returns the interpreter's runtime state store.
func (in *Interpreter) Context() *Context { return in.context }

// Functions returns the interpreter's function registry.
func (in *Interpreter) Functions() *FunctionRegistry { return in.functions }

// Hooks returns the interpreter's hook registry.
func (in *Interpreter) Hooks() *HookRegistry { return in.hooks }

// ExecutionID returns the unique identifier of this interpreter instance.
func (in *Interpreter) ExecutionID() string { return in.executionID }

// LastValue returns the most recently assigned or produced value, for
// interactive front ends.
func (in *Interpreter) LastValue() any { return in.lastValue }

// Logger returns the interpreter's logger.
func (in *Interpreter) Logger() *zap.Logger { return in.logger }

// SetLogLevel updates the active minimum severity threshold.
func (in *Interpreter) SetLogLevel(level ast.LogLevel) {
	in.level.SetLevel(zapLevel(level))
}

// ExecuteProgram walks the program's statements in order, firing program
// hooks around the run. The first propagating error aborts the remainder of
// the program; the severity threshold is forced to error and the original
// error is returned unchanged. Partial state mutations remain in the
// Context.
func (in *Interpreter) ExecuteProgram(program *ast.Program) error {
	in.hooks.Fire(BeforeProgram, HookPayload{Node: program, Interpreter: in, Context: in.context})
	for _, stmt := range program.Statements {
		if err := in.checkCancelled(); err != nil {
			in.level.SetLevel(zapcore.ErrorLevel)
			return err
		}
		if err := in.executeStatement(stmt); err != nil {
			in.level.SetLevel(zapcore.ErrorLevel)
			return err
		}
	}
	in.hooks.Fire(AfterProgram, HookPayload{Node: program, Interpreter: in, Context: in.context, Value: in.lastValue})
	return nil
}

func (in *Interpreter) checkCancelled() error {
	select {
	case <-in.execCtx.Done():
		return diag.Wrap(diag.KindRuntime, in.execCtx.Err(), "Execution cancelled")
	default:
		return nil
	}
}

// emitLog routes a script log message to the severity sink.
func (in *Interpreter) emitLog(level ast.LogLevel, message string) {
	switch level {
	case ast.LevelDebug:
		in.logger.Debug(message)
	case ast.LevelWarn:
		in.logger.Warn(message)
	case ast.LevelError:
		in.logger.Error(message)
	default:
		in.logger.Info(message)
	}
}

func zapLevel(level ast.LogLevel) zapcore.Level {
	switch level {
	case ast.LevelDebug:
		return zapcore.DebugLevel
	case ast.LevelWarn:
		return zapcore.WarnLevel
	case ast.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
