package cexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnresolved is returned for identifiers that survived preprocessing.
	ErrUnresolved = errors.New("unresolved identifier")
	// ErrNotInteger is returned for floating, string and list values where an
	// integer is required.
	ErrNotInteger = errors.New("not an integer constant")
	// ErrDivByZero is returned for x/0 and x%0.
	ErrDivByZero = errors.New("division by zero")
	// ErrUnsupported is returned for nodes outside the constant subset.
	ErrUnsupported = errors.New("unsupported expression")
)

// Eval computes the value of a scalar expression using 64-bit C integer
// arithmetic. Casts are transparent.
func Eval(e Expr) (int64, error) {
	switch x := e.(type) {
	case *Const:
		return constValue(x)
	case *Ident:
		return 0, fmt.Errorf("%v: %w %s", x.Pos, ErrUnresolved, x.Name)
	case *Cast:
		return Eval(x.X)
	case *Unary:
		v, err := Eval(x.X)
		if err != nil {
			return 0, err
		}
		switch x.Op {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		case "~":
			return ^v, nil
		case "!":
			return truth(v == 0), nil
		}
		return 0, fmt.Errorf("%v: %w: unary %s", x.Pos, ErrUnsupported, x.Op)
	case *Binary:
		return evalBinary(x)
	case *Cond:
		c, err := Eval(x.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return Eval(x.Then)
		}
		return Eval(x.Else)
	case *List:
		return 0, fmt.Errorf("%v: %w: initializer list where a scalar is expected", x.Pos, ErrNotInteger)
	case *Opaque:
		return 0, fmt.Errorf("%v: %w: %s", x.Pos, ErrUnsupported, x.Text)
	case nil:
		return 0, fmt.Errorf("%w: empty expression", ErrUnsupported)
	}
	return 0, fmt.Errorf("%v: %w: %T", e.Position(), ErrUnsupported, e)
}

func evalBinary(x *Binary) (int64, error) {
	a, err := Eval(x.X)
	if err != nil {
		return 0, err
	}
	switch x.Op {
	case "&&":
		if a == 0 {
			return 0, nil
		}
		b, err := Eval(x.Y)
		return truth(b != 0), err
	case "||":
		if a != 0 {
			return 1, nil
		}
		b, err := Eval(x.Y)
		return truth(b != 0), err
	}
	b, err := Eval(x.Y)
	if err != nil {
		return 0, err
	}
	switch x.Op {
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, fmt.Errorf("%v: %w", x.Pos, ErrDivByZero)
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, fmt.Errorf("%v: %w", x.Pos, ErrDivByZero)
		}
		return a % b, nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "<<", ">>":
		if b < 0 || b >= 64 {
			return 0, fmt.Errorf("%v: %w: shift count %d", x.Pos, ErrUnsupported, b)
		}
		if x.Op == "<<" {
			return a << uint(b), nil
		}
		return a >> uint(b), nil
	case "<":
		return truth(a < b), nil
	case ">":
		return truth(a > b), nil
	case "<=":
		return truth(a <= b), nil
	case ">=":
		return truth(a >= b), nil
	case "==":
		return truth(a == b), nil
	case "!=":
		return truth(a != b), nil
	case "&":
		return a & b, nil
	case "^":
		return a ^ b, nil
	case "|":
		return a | b, nil
	}
	return 0, fmt.Errorf("%v: %w: operator %s", x.Pos, ErrUnsupported, x.Op)
}

func truth(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Flatten evaluates e and returns its values depth first. A scalar yields a
// single value; nested lists are concatenated.
func Flatten(e Expr) ([]int64, error) {
	list, ok := e.(*List)
	if !ok {
		v, err := Eval(e)
		if err != nil {
			return nil, err
		}
		return []int64{v}, nil
	}
	var out []int64
	for _, el := range list.Elems {
		vals, err := Flatten(el)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// EvalRows evaluates a list of rows, such as an array of structs, into one
// flattened integer slice per row.
func EvalRows(e Expr) ([][]int64, error) {
	list, ok := e.(*List)
	if !ok {
		return nil, fmt.Errorf("%v: %w: expected an initializer list, got %s", e.Position(), ErrUnsupported, Render(e))
	}
	rows := make([][]int64, 0, len(list.Elems))
	for _, el := range list.Elems {
		row, err := Flatten(el)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ── Literal constants ───────────────────────────────────────────────────────

func constValue(c *Const) (int64, error) {
	switch c.Kind {
	case IntConst:
		v, err := ParseInt(c.Text)
		if err != nil {
			return 0, fmt.Errorf("%v: %w", c.Pos, err)
		}
		return v, nil
	case CharConst:
		v, err := ParseChar(c.Text)
		if err != nil {
			return 0, fmt.Errorf("%v: %w", c.Pos, err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("%v: %w: %s constant %s", c.Pos, ErrNotInteger, c.Kind, c.Text)
}

// ParseInt parses a C integer literal: decimal, octal with a leading 0,
// hexadecimal or binary, with any u/U/l/L suffix. Values above MaxInt64 wrap
// as in two's complement.
func ParseInt(text string) (int64, error) {
	s := strings.TrimRight(text, "uUlL")
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, text)
	}
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		s = "0o" + s[1:]
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil || strings.Contains(s, "_") {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, text)
	}
	return int64(u), nil
}

// ParseChar parses a single-character C constant such as 'a', '\n', '\0'
// or '\x41'. Wide prefixes are accepted and ignored.
func ParseChar(text string) (int64, error) {
	s := strings.TrimLeft(text, "LuU8")
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, text)
	}
	inner := s[1 : len(s)-1]
	if len(inner) >= 2 && inner[0] == '\\' && isOctal(inner[1]) {
		digits := inner[1:]
		if len(digits) > 3 {
			return 0, fmt.Errorf("%w: multi-character constant %s", ErrUnsupported, text)
		}
		v, err := strconv.ParseUint(digits, 8, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotInteger, text)
		}
		return int64(v), nil
	}
	r, _, tail, err := strconv.UnquoteChar(inner, '\'')
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, text)
	}
	if tail != "" {
		return 0, fmt.Errorf("%w: multi-character constant %s", ErrUnsupported, text)
	}
	return int64(r), nil
}

func isOctal(b byte) bool { return b >= '0' && b <= '7' }
