package cexpr

import (
	"fmt"

	"modernc.org/cc/v4"
)

// FromNode converts a parsed C expression into an Expr. Parentheses are
// dropped, they are implied by the tree shape. Nodes outside the supported
// subset become *Opaque and fail only when evaluated.
func FromNode(n cc.ExpressionNode) Expr {
	switch x := n.(type) {
	case nil:
		return &Opaque{}
	case *cc.PrimaryExpression:
		switch x.Case {
		case cc.PrimaryExpressionIdent:
			return &Ident{Pos: x.Position(), Name: x.Token.SrcStr()}
		case cc.PrimaryExpressionInt:
			return &Const{Pos: x.Position(), Kind: IntConst, Text: x.Token.SrcStr()}
		case cc.PrimaryExpressionChar, cc.PrimaryExpressionLChar:
			return &Const{Pos: x.Position(), Kind: CharConst, Text: x.Token.SrcStr()}
		case cc.PrimaryExpressionFloat:
			return &Const{Pos: x.Position(), Kind: FloatConst, Text: x.Token.SrcStr()}
		case cc.PrimaryExpressionString, cc.PrimaryExpressionLString:
			return &Const{Pos: x.Position(), Kind: StringConst, Text: x.Token.SrcStr()}
		case cc.PrimaryExpressionExpr:
			return FromNode(x.ExpressionList)
		}
	case *cc.PostfixExpression:
		switch x.Case {
		case cc.PostfixExpressionPrimary:
			return FromNode(x.PrimaryExpression)
		case cc.PostfixExpressionIndex, cc.PostfixExpressionCall,
			cc.PostfixExpressionSelect, cc.PostfixExpressionPSelect:
			return &Opaque{Pos: x.Position(), Text: cc.NodeSource(x), Simple: true}
		}
	case *cc.UnaryExpression:
		switch x.Case {
		case cc.UnaryExpressionPostfix:
			return FromNode(x.PostfixExpression)
		case cc.UnaryExpressionMinus, cc.UnaryExpressionPlus,
			cc.UnaryExpressionCpl, cc.UnaryExpressionNot:
			return &Unary{Pos: x.Position(), Op: x.Token.SrcStr(), X: FromNode(x.CastExpression)}
		}
	case *cc.CastExpression:
		switch x.Case {
		case cc.CastExpressionUnary:
			return FromNode(x.UnaryExpression)
		case cc.CastExpressionCast:
			return &Cast{Pos: x.Position(), Type: cc.NodeSource(x.TypeName), X: FromNode(x.CastExpression)}
		}
	case *cc.MultiplicativeExpression:
		if x.Case == cc.MultiplicativeExpressionCast {
			return FromNode(x.CastExpression)
		}
		return binary(x.Token, x.MultiplicativeExpression, x.CastExpression)
	case *cc.AdditiveExpression:
		if x.Case == cc.AdditiveExpressionMul {
			return FromNode(x.MultiplicativeExpression)
		}
		return binary(x.Token, x.AdditiveExpression, x.MultiplicativeExpression)
	case *cc.ShiftExpression:
		if x.Case == cc.ShiftExpressionAdd {
			return FromNode(x.AdditiveExpression)
		}
		return binary(x.Token, x.ShiftExpression, x.AdditiveExpression)
	case *cc.RelationalExpression:
		if x.Case == cc.RelationalExpressionShift {
			return FromNode(x.ShiftExpression)
		}
		return binary(x.Token, x.RelationalExpression, x.ShiftExpression)
	case *cc.EqualityExpression:
		if x.Case == cc.EqualityExpressionRel {
			return FromNode(x.RelationalExpression)
		}
		return binary(x.Token, x.EqualityExpression, x.RelationalExpression)
	case *cc.AndExpression:
		if x.Case == cc.AndExpressionEq {
			return FromNode(x.EqualityExpression)
		}
		return binary(x.Token, x.AndExpression, x.EqualityExpression)
	case *cc.ExclusiveOrExpression:
		if x.Case == cc.ExclusiveOrExpressionAnd {
			return FromNode(x.AndExpression)
		}
		return binary(x.Token, x.ExclusiveOrExpression, x.AndExpression)
	case *cc.InclusiveOrExpression:
		if x.Case == cc.InclusiveOrExpressionXor {
			return FromNode(x.ExclusiveOrExpression)
		}
		return binary(x.Token, x.InclusiveOrExpression, x.ExclusiveOrExpression)
	case *cc.LogicalAndExpression:
		if x.Case == cc.LogicalAndExpressionOr {
			return FromNode(x.InclusiveOrExpression)
		}
		return binary(x.Token, x.LogicalAndExpression, x.InclusiveOrExpression)
	case *cc.LogicalOrExpression:
		if x.Case == cc.LogicalOrExpressionLAnd {
			return FromNode(x.LogicalAndExpression)
		}
		return binary(x.Token, x.LogicalOrExpression, x.LogicalAndExpression)
	case *cc.ConditionalExpression:
		if x.Case == cc.ConditionalExpressionLOr {
			return FromNode(x.LogicalOrExpression)
		}
		return &Cond{
			Pos:  x.Position(),
			Cond: FromNode(x.LogicalOrExpression),
			Then: FromNode(x.ExpressionList),
			Else: FromNode(x.ConditionalExpression),
		}
	case *cc.ConstantExpression:
		return FromNode(x.ConditionalExpression)
	case *cc.AssignmentExpression:
		if x.Case == cc.AssignmentExpressionCond {
			return FromNode(x.ConditionalExpression)
		}
	case *cc.ExpressionList:
		if x.ExpressionList == nil {
			return FromNode(x.AssignmentExpression)
		}
	}
	return &Opaque{Pos: n.Position(), Text: cc.NodeSource(n)}
}

func binary(op cc.Token, x, y cc.ExpressionNode) Expr {
	return &Binary{Pos: op.Position(), Op: op.SrcStr(), X: FromNode(x), Y: FromNode(y)}
}

// FromInitializer converts an initializer, either a single expression or a
// brace-enclosed list, into an Expr. Designators are not supported inside
// the converted sub-tree.
func FromInitializer(in *cc.Initializer) (Expr, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: missing initializer", ErrUnsupported)
	}
	switch in.Case {
	case cc.InitializerExpr:
		return FromNode(in.AssignmentExpression), nil
	case cc.InitializerInitList:
		list := &List{Pos: in.Position()}
		for l := in.InitializerList; l != nil; l = l.InitializerList {
			if l.Designation != nil {
				return nil, fmt.Errorf("%v: %w: designated initializer %s",
					l.Designation.Position(), ErrUnsupported, cc.NodeSource(l.Designation))
			}
			el, err := FromInitializer(l.Initializer)
			if err != nil {
				return nil, err
			}
			list.Elems = append(list.Elems, el)
		}
		return list, nil
	}
	return nil, fmt.Errorf("%v: %w: initializer case %v", in.Position(), ErrUnsupported, in.Case)
}
