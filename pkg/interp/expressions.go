package interp

import (
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/diag"
)

// EvalExpression evaluates an expression against the interpreter's Context,
// firing the expression hooks around the evaluation.
func (in *Interpreter) EvalExpression(expr ast.Expression) (any, error) {
	in.hooks.Fire(BeforeExpression, HookPayload{Node: expr, Interpreter: in, Context: in.context})
	val, err := in.evalExpression(expr)
	if err != nil {
		var typed *diag.Error
		if errors.As(err, &typed) {
			typed.WithPos(expr.Pos())
		}
		return nil, err
	}
	in.hooks.Fire(AfterExpression, HookPayload{Node: expr, Interpreter: in, Context: in.context, Value: val})
	return val, nil
}

func (in *Interpreter) evalExpression(expr ast.Expression) (any, error) {
	switch node := expr.(type) {
	case *ast.Literal:
		if tmpl, ok := node.Value.(*ast.StringTemplate); ok {
			return in.evalTemplate(tmpl)
		}
		if nested, ok := node.Value.(ast.Expression); ok {
			return in.evalExpression(nested)
		}
		return node.Value, nil
	case *ast.Identifier:
		return in.resolveIdentifier(node)
	case *ast.BinaryExpression:
		return in.evalBinary(node)
	case *ast.StringTemplate:
		return in.evalTemplate(node)
	default:
		return nil, diag.New(diag.KindRuntime, "Unknown expression node %T", expr)
	}
}

// resolveIdentifier reads a scoped name directly, or performs the
// scope-precedence search for a bare name. The failure message for bare
// names lists the valid scope prefixes the caller should use.
func (in *Interpreter) resolveIdentifier(node *ast.Identifier) (any, error) {
	name := node.Name
	if dot := strings.IndexByte(name, '.'); dot > 0 && IsValidScope(name[:dot]) {
		val, err := in.context.Get(name)
		if err != nil {
			var typed *diag.Error
			if errors.As(err, &typed) {
				typed.WithPos(node.Position)
			}
			return nil, err
		}
		return val, nil
	}
	if val, ok := in.context.ResolveBare(name); ok {
		return val, nil
	}
	return nil, diag.New(diag.KindVariableNotFound,
		"Variable %q not found. Use a scope prefix: %s", name,
		strings.Join(ValidScopes(), ", ")).WithPos(node.Position)
}

func (in *Interpreter) evalBinary(node *ast.BinaryExpression) (any, error) {
	// and/or short-circuit before the right operand is touched.
	switch node.Op {
	case ast.OpAnd:
		left, err := in.evalExpression(node.Left)
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			return false, nil
		}
		right, err := in.evalExpression(node.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case ast.OpOr:
		left, err := in.evalExpression(node.Left)
		if err != nil {
			return nil, err
		}
		if Truthy(left) {
			return true, nil
		}
		right, err := in.evalExpression(node.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	left, err := in.evalExpression(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpression(node.Right)
	if err != nil {
		return nil, err
	}
	val, err := applyOperator(node.Op, left, right)
	if err != nil {
		var typed *diag.Error
		if errors.As(err, &typed) {
			typed.WithPos(node.Position)
		}
		return nil, err
	}
	return val, nil
}

func applyOperator(op ast.Operator, left, right any) (any, error) {
	switch op {
	case ast.OpAdd:
		if _, ok := left.(string); ok {
			return left.(string) + Stringify(right), nil
		}
		if _, ok := right.(string); ok {
			return Stringify(left) + right.(string), nil
		}
		return numericOp(op, left, right)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return numericOp(op, left, right)
	case ast.OpEq:
		return equalValues(left, right), nil
	case ast.OpNeq:
		return !equalValues(left, right), nil
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		cmp, err := orderValues(left, right)
		if err != nil {
			return nil, err
		}
		switch op {
		case ast.OpLt:
			return cmp < 0, nil
		case ast.OpGt:
			return cmp > 0, nil
		case ast.OpLte:
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}
	case ast.OpIn:
		return containsValue(left, right)
	default:
		return nil, diag.New(diag.KindUnsupportedOperator, "Unsupported operator %q", string(op))
	}
}

// numericOp applies an arithmetic operator. Two integer operands stay
// integer (Go division semantics); any float operand promotes the result.
func numericOp(op ast.Operator, left, right any) (any, error) {
	lf, lInt, lok := asNumber(left)
	rf, rInt, rok := asNumber(right)
	if !lok || !rok {
		return nil, diag.New(diag.KindUnsupportedOperator,
			"Operator %q requires numeric operands, got %s and %s", string(op), typeName(left), typeName(right))
	}

	if lInt && rInt {
		li, _ := asInt64(left)
		ri, _ := asInt64(right)
		switch op {
		case ast.OpAdd:
			return li + ri, nil
		case ast.OpSub:
			return li - ri, nil
		case ast.OpMul:
			return li * ri, nil
		case ast.OpDiv:
			if ri == 0 {
				return nil, diag.New(diag.KindDivisionByZero, "Division by zero")
			}
			return li / ri, nil
		case ast.OpMod:
			if ri == 0 {
				return nil, diag.New(diag.KindModuloByZero, "Modulo by zero")
			}
			return li % ri, nil
		}
	}

	switch op {
	case ast.OpAdd:
		return lf + rf, nil
	case ast.OpSub:
		return lf - rf, nil
	case ast.OpMul:
		return lf * rf, nil
	case ast.OpDiv:
		if rf == 0 {
			return nil, diag.New(diag.KindDivisionByZero, "Division by zero")
		}
		return lf / rf, nil
	case ast.OpMod:
		if rf == 0 {
			return nil, diag.New(diag.KindModuloByZero, "Modulo by zero")
		}
		return math.Mod(lf, rf), nil
	}
	return nil, diag.New(diag.KindUnsupportedOperator, "Unsupported operator %q", string(op))
}

// evalTemplate concatenates literal text with the string form of each
// embedded expression, in source order. Unresolved variable references are
// logged and their placeholder text kept untouched; this leniency is
// deliberate and distinct from the strict failure of direct identifier
// evaluation.
func (in *Interpreter) evalTemplate(tmpl *ast.StringTemplate) (any, error) {
	var b strings.Builder
	for _, part := range tmpl.Parts {
		if part.Expr == nil {
			b.WriteString(part.Text)
			continue
		}
		val, err := in.evalExpression(part.Expr)
		if err != nil {
			if diag.IsKind(err, diag.KindVariableNotFound) {
				in.logger.Warn("unresolved variable in string template",
					zap.String("placeholder", part.Raw))
				b.WriteString(part.Raw)
				continue
			}
			return nil, err
		}
		b.WriteString(Stringify(val))
	}
	return b.String(), nil
}
