// Package cexpr models the constant sub-expressions found in C struct
// initializers and evaluates them to integers.
//
// An initializer is first converted from the modernc.org/cc/v4 syntax tree
// into a small tagged tree (FromNode, FromInitializer). The tree can be
// printed back as text (Render) or evaluated with C integer semantics
// (Eval, Flatten, EvalRows). Evaluation never goes through the text form.
package cexpr

import (
	"fmt"
	"strings"

	"modernc.org/token"
)

// Expr is one node of an initializer expression tree.
type Expr interface {
	Position() token.Position
	expr()
}

// ConstKind classifies a literal constant.
type ConstKind int

const (
	IntConst ConstKind = iota
	CharConst
	FloatConst
	StringConst
)

func (k ConstKind) String() string {
	switch k {
	case IntConst:
		return "integer"
	case CharConst:
		return "character"
	case FloatConst:
		return "floating"
	case StringConst:
		return "string"
	default:
		return fmt.Sprintf("ConstKind(%d)", int(k))
	}
}

// Const is a literal constant; Text is its raw source spelling.
type Const struct {
	Pos  token.Position
	Kind ConstKind
	Text string
}

// Ident is an identifier left over after preprocessing.
type Ident struct {
	Pos  token.Position
	Name string
}

// Unary is a prefix operator: one of - + ~ !.
type Unary struct {
	Pos token.Position
	Op  string
	X   Expr
}

// Binary is an infix operator applied to two operands.
type Binary struct {
	Pos token.Position
	Op  string
	X   Expr
	Y   Expr
}

// Cond is the ternary operator.
type Cond struct {
	Pos  token.Position
	Cond Expr
	Then Expr
	Else Expr
}

// Cast is a C cast. The target type is kept only for printing.
type Cast struct {
	Pos  token.Position
	Type string
	X    Expr
}

// List is a brace-enclosed initializer list.
type List struct {
	Pos   token.Position
	Elems []Expr
}

// Opaque is any node the evaluator does not understand. Text is the source
// form of the node. Simple marks array indexing, member access and calls,
// which bind tighter than any infix operator.
type Opaque struct {
	Pos    token.Position
	Text   string
	Simple bool
}

func (*Const) expr()  {}
func (*Ident) expr()  {}
func (*Unary) expr()  {}
func (*Binary) expr() {}
func (*Cond) expr()   {}
func (*Cast) expr()   {}
func (*List) expr()   {}
func (*Opaque) expr() {}

func (e *Const) Position() token.Position  { return e.Pos }
func (e *Ident) Position() token.Position  { return e.Pos }
func (e *Unary) Position() token.Position  { return e.Pos }
func (e *Binary) Position() token.Position { return e.Pos }
func (e *Cond) Position() token.Position   { return e.Pos }
func (e *Cast) Position() token.Position   { return e.Pos }
func (e *List) Position() token.Position   { return e.Pos }
func (e *Opaque) Position() token.Position { return e.Pos }

// ── Rendering ───────────────────────────────────────────────────────────────

// Render reconstructs a textual form of e. Lists are comma separated with
// nested lists parenthesized, so a list of lists reads as a tuple of tuples.
// Operands are parenthesized unless they are simple; no precedence table is
// consulted.
func Render(e Expr) string {
	var sb strings.Builder
	render(&sb, e)
	return sb.String()
}

func render(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
	case *Const:
		sb.WriteString(x.Text)
	case *Ident:
		sb.WriteString(x.Name)
	case *Opaque:
		sb.WriteString(x.Text)
	case *List:
		for i, el := range x.Elems {
			if i > 0 {
				sb.WriteByte(',')
			}
			if _, ok := el.(*List); ok {
				sb.WriteByte('(')
				render(sb, el)
				sb.WriteByte(')')
				continue
			}
			render(sb, el)
		}
	case *Unary:
		sb.WriteString(x.Op)
		operand(sb, x.X)
	case *Binary:
		operand(sb, x.X)
		sb.WriteByte(' ')
		sb.WriteString(x.Op)
		sb.WriteByte(' ')
		operand(sb, x.Y)
	case *Cond:
		operand(sb, x.Cond)
		sb.WriteString(" ? ")
		operand(sb, x.Then)
		sb.WriteString(" : ")
		operand(sb, x.Else)
	case *Cast:
		sb.WriteByte('(')
		sb.WriteString(x.Type)
		sb.WriteString(") ")
		operand(sb, x.X)
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}

func operand(sb *strings.Builder, e Expr) {
	if IsSimple(e) {
		render(sb, e)
		return
	}
	sb.WriteByte('(')
	render(sb, e)
	sb.WriteByte(')')
}

// IsSimple reports whether e always binds tighter than an infix operator:
// a constant, an identifier, an index or member reference, or a call.
func IsSimple(e Expr) bool {
	switch x := e.(type) {
	case *Const, *Ident:
		return true
	case *Opaque:
		return x.Simple
	}
	return false
}
