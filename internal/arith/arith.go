// Package arith evaluates the arithmetic expression tree produced by
// internal/ast for `$(( ))`, `(( ))`, array subscripts, and the C-style
// `for` clause (spec.md §4.2 step 5 and §4.4).
package arith

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/invariant"
)

// Vars is the minimal variable surface arithmetic needs: reads default to
// 0 per bash semantics, and ++/--/= write back through Set.
type Vars interface {
	Get(name string) string
	Set(name string, value string)
}

// Eval walks expr and returns its integer value, mutating vars for any
// assignment or increment/decrement encountered along the way.
func Eval(expr *ast.ArithExpr, vars Vars) (int64, error) {
	invariant.NotNil(expr, "expr")
	invariant.NotNil(vars, "vars")

	switch {
	case expr.IntLit != nil:
		return *expr.IntLit, nil
	case expr.VarName != "":
		return readVar(expr.VarName, vars)
	case expr.Grouped != nil:
		return Eval(expr.Grouped, vars)
	case expr.Unary != nil:
		return evalUnary(expr.Unary, vars)
	case expr.Binary != nil:
		return evalBinary(expr.Binary, vars)
	case expr.Assign != nil:
		return evalAssign(expr.Assign, vars)
	case expr.IncDec != nil:
		return evalIncDec(expr.IncDec, vars)
	case expr.Ternary != nil:
		cond, err := Eval(expr.Ternary.Cond, vars)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return Eval(expr.Ternary.Then, vars)
		}
		return Eval(expr.Ternary.Else, vars)
	case expr.Comma != nil:
		if _, err := Eval(expr.Comma.X, vars); err != nil {
			return 0, err
		}
		return Eval(expr.Comma.Y, vars)
	default:
		return 0, fmt.Errorf("arith: empty expression node")
	}
}

// readVar parses a variable's current string value as a base-10 integer,
// defaulting to 0 for unset or non-numeric values — bash never fails an
// arithmetic context just because a name is unset. A name starting with a
// digit is a numeric literal (the adapter hands literals over as names) and
// is parsed directly, honouring 0x/0 prefixes.
func readVar(name string, vars Vars) (int64, error) {
	if strings.HasPrefix(name, "$") {
		return parseIntLenient(name[1:], 0), nil
	}
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		return parseIntLenient(name, 0), nil
	}
	return parseIntLenient(vars.Get(name), 10), nil
}

func parseIntLenient(s string, base int) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0
	}
	return n
}

func evalUnary(u *ast.ArithUnary, vars Vars) (int64, error) {
	x, err := Eval(u.X, vars)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case "-":
		return -x, nil
	case "+":
		return x, nil
	case "!":
		return boolToInt(x == 0), nil
	case "~":
		return ^x, nil
	default:
		return 0, fmt.Errorf("arith: unsupported unary operator %q", u.Op)
	}
}

func evalBinary(b *ast.ArithBinary, vars Vars) (int64, error) {
	x, err := Eval(b.X, vars)
	if err != nil {
		return 0, err
	}
	// Short-circuit && and || without evaluating the right side.
	switch b.Op {
	case "&&":
		if x == 0 {
			return 0, nil
		}
		y, err := Eval(b.Y, vars)
		if err != nil {
			return 0, err
		}
		return boolToInt(y != 0), nil
	case "||":
		if x != 0 {
			return 1, nil
		}
		y, err := Eval(b.Y, vars)
		if err != nil {
			return 0, err
		}
		return boolToInt(y != 0), nil
	}

	y, err := Eval(b.Y, vars)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, nil
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return 0, nil
		}
		return x % y, nil
	case "**":
		return intPow(x, y), nil
	case "<<":
		return x << uint64(y), nil
	case ">>":
		return x >> uint64(y), nil
	case "&":
		return x & y, nil
	case "|":
		return x | y, nil
	case "^":
		return x ^ y, nil
	case "<":
		return boolToInt(x < y), nil
	case "<=":
		return boolToInt(x <= y), nil
	case ">":
		return boolToInt(x > y), nil
	case ">=":
		return boolToInt(x >= y), nil
	case "==":
		return boolToInt(x == y), nil
	case "!=":
		return boolToInt(x != y), nil
	default:
		return 0, fmt.Errorf("arith: unsupported binary operator %q", b.Op)
	}
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	var result int64 = 1
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func evalAssign(a *ast.ArithAssign, vars Vars) (int64, error) {
	cur, err := readVar(a.Name, vars)
	if err != nil {
		return 0, err
	}
	rhs, err := Eval(a.X, vars)
	if err != nil {
		return 0, err
	}
	var result int64
	switch a.Op {
	case "=":
		result = rhs
	case "+=":
		result = cur + rhs
	case "-=":
		result = cur - rhs
	case "*=":
		result = cur * rhs
	case "/=":
		if rhs == 0 {
			result = 0
		} else {
			result = cur / rhs
		}
	case "%=":
		if rhs == 0 {
			result = 0
		} else {
			result = cur % rhs
		}
	case "&=":
		result = cur & rhs
	case "|=":
		result = cur | rhs
	case "^=":
		result = cur ^ rhs
	case "<<=":
		result = cur << uint64(rhs)
	case ">>=":
		result = cur >> uint64(rhs)
	default:
		return 0, fmt.Errorf("arith: unsupported assignment operator %q", a.Op)
	}
	vars.Set(a.Name, strconv.FormatInt(result, 10))
	return result, nil
}

func evalIncDec(i *ast.ArithIncDec, vars Vars) (int64, error) {
	cur, err := readVar(i.Name, vars)
	if err != nil {
		return 0, err
	}
	next := cur + 1
	if i.Op == "--" {
		next = cur - 1
	}
	vars.Set(i.Name, strconv.FormatInt(next, 10))
	if i.Pre {
		return next, nil
	}
	return cur, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
