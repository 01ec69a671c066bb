// Package diag defines the engine's runtime error taxonomy and the
// location-aware message format shared by every component.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/axon/pkg/ast"
)

// Kind classifies a runtime error.
type Kind int

const (
	// KindRuntime is the catch-all for unexpected underlying failures.
	KindRuntime Kind = iota
	KindInvalidKey
	KindVariableNotFound
	KindResourceNotFound
	KindDivisionByZero
	KindModuloByZero
	KindUnsupportedOperator
	KindNotCallable
	KindReasonerUnavailable
	KindReasonerFailure
)

var kindNames = map[Kind]string{
	KindRuntime:             "RuntimeError",
	KindInvalidKey:          "InvalidKey",
	KindVariableNotFound:    "VariableNotFound",
	KindResourceNotFound:    "ResourceNotFound",
	KindDivisionByZero:      "DivisionByZero",
	KindModuloByZero:        "ModuloByZero",
	KindUnsupportedOperator: "UnsupportedOperator",
	KindNotCallable:         "NotCallable",
	KindReasonerUnavailable: "ReasonerUnavailable",
	KindReasonerFailure:     "ReasonerFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a runtime failure with a kind, an optional source position and an
// optional wrapped cause. The cause survives every wrapping layer and is
// reachable through errors.Unwrap / errors.As.
type Error struct {
	Kind     Kind
	Message  string
	Position ast.Position
	cause    error
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind whose cause is err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	if e.Position.Known() {
		msg += "\n" + FormatPosition(e.Position)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithPos returns e with the position filled in, unless a position is already
// set. Callers patch locations in as errors bubble up through nodes that know
// where they are, without clobbering the original site.
func (e *Error) WithPos(pos ast.Position) *Error {
	if e == nil || e.Position.Known() || !pos.Known() {
		return e
	}
	e.Position = pos
	return e
}

// KindOf reports the Kind of err when err is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindRuntime, false
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// FormatPosition renders the standard location block:
//
//	At line 5, column 10:
//	private.x = 10 / 0
//	         ^
func FormatPosition(pos ast.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "At line %d, column %d:", pos.Line, pos.Column)
	if pos.SourceLine != "" {
		b.WriteString("\n")
		b.WriteString(pos.SourceLine)
		b.WriteString("\n")
		pad := pos.Column - 1
		if pad < 0 {
			pad = 0
		}
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString("^")
	}
	return b.String()
}
