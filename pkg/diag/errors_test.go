package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/axon/pkg/ast"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindDivisionByZero, "Division by zero")
	if got := err.Error(); got != "Division by zero" {
		t.Errorf("Error() = %q, want %q", got, "Division by zero")
	}
}

func TestErrorWithPosition(t *testing.T) {
	err := New(KindDivisionByZero, "Division by zero").WithPos(ast.Position{
		Line:       5,
		Column:     10,
		SourceLine: "private.x = 10 / 0",
	})

	msg := err.Error()
	for _, want := range []string{
		"Division by zero",
		"At line 5, column 10:",
		"private.x = 10 / 0",
		"         ^",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestWithPosDoesNotClobber(t *testing.T) {
	original := ast.Position{Line: 2, Column: 3, SourceLine: "a = 1"}
	err := New(KindRuntime, "boom").WithPos(original)
	err.WithPos(ast.Position{Line: 9, Column: 9, SourceLine: "other"})
	if err.Position.Line != 2 || err.Position.Column != 3 {
		t.Errorf("position clobbered: got %+v, want %+v", err.Position, original)
	}
}

func TestCauseChaining(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(KindReasonerFailure, cause, "Reasoner query failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, missing cause text", err.Error())
	}

	// A second wrapping layer still exposes the original.
	outer := Wrap(KindRuntime, err, "statement failed")
	if !errors.Is(outer, cause) {
		t.Error("doubly wrapped cause not reachable via errors.Is")
	}
	var typed *Error
	if !errors.As(outer, &typed) || typed.Kind != KindRuntime {
		t.Errorf("errors.As found kind %v, want KindRuntime", typed.Kind)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   Kind
		wantOK bool
	}{
		{"typed", New(KindInvalidKey, "bad"), KindInvalidKey, true},
		{"wrapped typed", fmt.Errorf("outer: %w", New(KindNotCallable, "x")), KindNotCallable, true},
		{"plain", fmt.Errorf("plain"), KindRuntime, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindOf(tt.err)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("KindOf() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindVariableNotFound.String(); got != "VariableNotFound" {
		t.Errorf("String() = %q, want VariableNotFound", got)
	}
	if got := KindReasonerUnavailable.String(); got != "ReasonerUnavailable" {
		t.Errorf("String() = %q, want ReasonerUnavailable", got)
	}
}

func TestFormatPositionCaretPadding(t *testing.T) {
	got := FormatPosition(ast.Position{Line: 1, Column: 4, SourceLine: "x = 1"})
	want := "At line 1, column 4:\nx = 1\n   ^"
	if got != want {
		t.Errorf("FormatPosition() = %q, want %q", got, want)
	}
}
