// Package axon is the high-level embedding API for the Axon language engine.
//
// The engine executes Programs produced by an external parser; axon itself
// never touches source text. A minimal session:
//
//	engine := axon.New()
//	engine.RegisterReasoner(myReasoner)
//	err := engine.Execute(program)
package axon

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/interp"
)

// Diagnostic is a parse-time problem reported by the external parser.
type Diagnostic struct {
	Message  string
	Line     int
	Column   int
	Severity string // "error" or "warning"
}

// ParseResult is the surface contract with the external parser: a Program
// plus any diagnostics it produced. When diagnostics are present the caller
// decides whether to execute anyway (Run refuses errors; Execute does not
// look at diagnostics at all).
type ParseResult struct {
	Program     *ast.Program
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic has error severity.
func (r ParseResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity != "warning" {
			return true
		}
	}
	return false
}

// Engine wraps one interpreter and its runtime state.
type Engine struct {
	interp *interp.Interpreter
}

// Option configures an Engine.
type Option func(*[]interp.Option)

// WithOutput sets the plain output sink used by print statements.
func WithOutput(w io.Writer) Option {
	return func(opts *[]interp.Option) { *opts = append(*opts, interp.WithOutput(w)) }
}

// WithLogger replaces the engine's default console logger.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *[]interp.Option) { *opts = append(*opts, interp.WithLogger(logger)) }
}

// WithExecContext sets the context checked between statements and passed to
// the Reasoner.
func WithExecContext(ctx context.Context) Option {
	return func(opts *[]interp.Option) { *opts = append(*opts, interp.WithExecContext(ctx)) }
}

// New creates an Engine with a fresh interpreter and runtime context.
func New(options ...Option) *Engine {
	var opts []interp.Option
	for _, opt := range options {
		opt(&opts)
	}
	return &Engine{interp: interp.New(opts...)}
}

// Interpreter exposes the underlying interpreter for advanced embedding.
func (e *Engine) Interpreter() *interp.Interpreter { return e.interp }

// Execute runs a program against the engine's context. The first
// propagating error aborts the remainder; state written by earlier
// statements stays in the context.
func (e *Engine) Execute(program *ast.Program) error {
	return e.interp.ExecuteProgram(program)
}

// Run executes a ParseResult, refusing when the parser reported errors.
// Warnings do not block execution.
func (e *Engine) Run(result ParseResult) error {
	if result.HasErrors() {
		msgs := make([]string, 0, len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			msgs = append(msgs, fmt.Sprintf("line %d, column %d: %s", d.Line, d.Column, d.Message))
		}
		return fmt.Errorf("program has parse errors:\n%s", strings.Join(msgs, "\n"))
	}
	if result.Program == nil {
		return fmt.Errorf("parse result has no program")
	}
	return e.interp.ExecuteProgram(result.Program)
}

// RegisterFunction binds a host function callable from scripts.
func (e *Engine) RegisterFunction(name string, fn interp.Function, meta *interp.FunctionMeta) error {
	return e.interp.Functions().Register(name, fn, meta)
}

// RegisterResource hands a host object to the engine's resource registry.
func (e *Engine) RegisterResource(name string, obj any) {
	e.interp.Context().RegisterResource(name, obj)
}

// RegisterReasoner registers r as the reasoning capability used by reason
// statements.
func (e *Engine) RegisterReasoner(r interp.Reasoner) {
	e.interp.Context().RegisterResource(interp.ResourceReasoner, r)
}

// RegisterHook adds an observer callback at an extension point.
func (e *Engine) RegisterHook(point interp.HookPoint, fn interp.HookFunc) {
	e.interp.Hooks().Register(point, fn)
}

// Set writes a value at a scoped dotted key in the engine's context.
func (e *Engine) Set(key string, value any) error {
	return e.interp.Context().Set(key, value)
}

// Get reads the value at a scoped dotted key.
func (e *Engine) Get(key string) (any, error) {
	return e.interp.Context().Get(key)
}

// LastValue returns the most recently produced value, for interactive front
// ends.
func (e *Engine) LastValue() any { return e.interp.LastValue() }

// ExecutionID returns the unique identifier of this engine's interpreter.
func (e *Engine) ExecutionID() string { return e.interp.ExecutionID() }
