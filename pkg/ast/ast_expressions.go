package ast

// Operator is a binary operator of the Axon expression language.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpLt  Operator = "<"
	OpGt  Operator = ">"
	OpLte Operator = "<="
	OpGte Operator = ">="
	OpAnd Operator = "and"
	OpOr  Operator = "or"
	OpIn  Operator = "in"
)

// Literal is a typed scalar value (int64, float64, string, bool, nil) or a
// nested *StringTemplate produced by the parser for quoted template strings.
type Literal struct {
	Position Position
	Value    any
}

func (l *Literal) Pos() Position {
	if l == nil {
		return Position{}
	}
	return l.Position
}
func (l *Literal) expressionNode() {}

// Identifier is a dotted variable reference. Names starting with a scope
// prefix (private., public., system., execution.) read that scope directly;
// bare names are resolved by scope-precedence search.
type Identifier struct {
	Position Position
	Name     string
}

func (i *Identifier) Pos() Position {
	if i == nil {
		return Position{}
	}
	return i.Position
}
func (i *Identifier) expressionNode() {}

// BinaryExpression applies Op to the values of Left and Right. Operands are
// evaluated left to right; "and"/"or" short-circuit.
type BinaryExpression struct {
	Position Position
	Left     Expression
	Op       Operator
	Right    Expression
}

func (b *BinaryExpression) Pos() Position {
	if b == nil {
		return Position{}
	}
	return b.Position
}
func (b *BinaryExpression) expressionNode() {}

// TemplatePart is one segment of a StringTemplate: either literal text
// (Expr nil) or an embedded expression. Raw preserves the original
// placeholder spelling, e.g. "{private.name}", so unresolved references can
// be left untouched in lenient mode.
type TemplatePart struct {
	Text string
	Expr Expression
	Raw  string
}

// StringTemplate is an interpolated string, e.g. "Hello {private.name}".
type StringTemplate struct {
	Position Position
	Parts    []TemplatePart
}

func (s *StringTemplate) Pos() Position {
	if s == nil {
		return Position{}
	}
	return s.Position
}
func (s *StringTemplate) expressionNode() {}

// Text is a convenience constructor for a literal template part.
func Text(s string) TemplatePart {
	return TemplatePart{Text: s}
}

// Embed is a convenience constructor for an interpolated template part.
func Embed(raw string, expr Expression) TemplatePart {
	return TemplatePart{Expr: expr, Raw: raw}
}
