// Package ast defines the Axon language AST node types.
//
// Programs are produced by an external parser (or constructed directly by a
// host) and consumed read-only by the interpreter. Nodes carry an optional
// Position so runtime diagnostics can point back at the source.
package ast

// Position identifies where a node appeared in the original source.
// The zero value means the location is unknown (synthetic nodes, host-built
// programs, REPL fragments).
type Position struct {
	Line       int    // 1-based
	Column     int    // 1-based
	SourceLine string // full text of the source line, for error snippets
}

// Known reports whether the position carries real location information.
func (p Position) Known() bool {
	return p.Line > 0
}

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() Position
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every AST the parser produces. It is immutable
// during execution and may be shared across interpreter runs.
type Program struct {
	Source     string // original source text, kept for error snippets
	Statements []Statement
}

func (p *Program) Pos() Position {
	if p == nil || len(p.Statements) == 0 {
		return Position{}
	}
	return p.Statements[0].Pos()
}

// LogLevel is a script-visible log severity.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Assignment writes the value of an expression into the runtime context.
// private.x = 10
type Assignment struct {
	Position Position
	Target   string // dotted key; an unscoped name defaults to the private scope
	Value    Expression
}

func (a *Assignment) Pos() Position {
	if a == nil {
		return Position{}
	}
	return a.Position
}
func (a *Assignment) statementNode() {}

// LogStatement routes a message to the severity log sink.
// log("starting", "info")
type LogStatement struct {
	Position Position
	Message  Expression
	Level    LogLevel // empty means info
}

func (l *LogStatement) Pos() Position {
	if l == nil {
		return Position{}
	}
	return l.Position
}
func (l *LogStatement) statementNode() {}

// PrintStatement writes a message to the plain output sink.
type PrintStatement struct {
	Position Position
	Message  Expression
}

func (p *PrintStatement) Pos() Position {
	if p == nil {
		return Position{}
	}
	return p.Position
}
func (p *PrintStatement) statementNode() {}

// Conditional executes Body when the condition is truthy, ElseBody otherwise.
type Conditional struct {
	Position  Position
	Condition Expression
	Body      []Statement
	ElseBody  []Statement // nil when the conditional has no else branch
}

func (c *Conditional) Pos() Position {
	if c == nil {
		return Position{}
	}
	return c.Position
}
func (c *Conditional) statementNode() {}

// WhileLoop re-evaluates the condition before each iteration. The interpreter
// enforces a hard iteration ceiling so runaway scripts always terminate.
type WhileLoop struct {
	Position  Position
	Condition Expression
	Body      []Statement
}

func (w *WhileLoop) Pos() Position {
	if w == nil {
		return Position{}
	}
	return w.Position
}
func (w *WhileLoop) statementNode() {}

// LogLevelSet changes the active minimum severity of the log sink.
type LogLevelSet struct {
	Position Position
	Level    LogLevel
}

func (l *LogLevelSet) Pos() Position {
	if l == nil {
		return Position{}
	}
	return l.Position
}
func (l *LogLevelSet) statementNode() {}

// ReasonStatement delegates a prompt to the external reasoning capability.
// result = reason("summarize {private.doc}", context=[private.doc], format="structured")
type ReasonStatement struct {
	Position    Position
	Prompt      Expression
	ContextVars []string              // variables gathered into the side payload
	Target      string                // optional; unscoped names default to private
	Options     map[string]Expression // temperature, max_tokens, format, ...
}

func (r *ReasonStatement) Pos() Position {
	if r == nil {
		return Position{}
	}
	return r.Position
}
func (r *ReasonStatement) statementNode() {}

// FunctionCall invokes a registered host function or a callable reachable
// through the context. Argument keys that are numeric strings ("0", "1", ...)
// are positional; all others are named.
type FunctionCall struct {
	Position Position
	Name     string // plain name, or dotted path for method calls on host objects
	Args     map[string]Expression
}

func (f *FunctionCall) Pos() Position {
	if f == nil {
		return Position{}
	}
	return f.Position
}
func (f *FunctionCall) statementNode() {}
