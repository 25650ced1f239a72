package arith

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/ast"
)

type mapVars map[string]string

func (m mapVars) Get(name string) string { return m[name] }
func (m mapVars) Set(name, value string) { m[name] = value }

func intLit(n int64) *ast.ArithExpr { return &ast.ArithExpr{IntLit: &n} }

func TestEvalArithmetic(t *testing.T) {
	expr := &ast.ArithExpr{Binary: &ast.ArithBinary{Op: "+", X: intLit(2), Y: intLit(3)}}
	v, err := Eval(expr, mapVars{})
	require.NoError(t, err)
	require.Equal(t, int64(5), v)
}

func TestDivisionByZeroReturnsZero(t *testing.T) {
	expr := &ast.ArithExpr{Binary: &ast.ArithBinary{Op: "/", X: intLit(10), Y: intLit(0)}}
	v, err := Eval(expr, mapVars{})
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestUnsetVariableReadsAsZero(t *testing.T) {
	expr := &ast.ArithExpr{VarName: "UNSET"}
	v, err := Eval(expr, mapVars{})
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestAssignmentWritesBackAndReturnsNewValue(t *testing.T) {
	vars := mapVars{}
	expr := &ast.ArithExpr{Assign: &ast.ArithAssign{Name: "x", Op: "=", X: intLit(7)}}
	v, err := Eval(expr, vars)
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
	require.Equal(t, "7", vars["x"])
}

func TestPreIncrement(t *testing.T) {
	vars := mapVars{"i": "5"}
	expr := &ast.ArithExpr{IncDec: &ast.ArithIncDec{Name: "i", Op: "++", Pre: true}}
	v, err := Eval(expr, vars)
	require.NoError(t, err)
	require.Equal(t, int64(6), v)
	require.Equal(t, "6", vars["i"])
}

func TestPostIncrementReturnsOldValue(t *testing.T) {
	vars := mapVars{"i": "5"}
	expr := &ast.ArithExpr{IncDec: &ast.ArithIncDec{Name: "i", Op: "++", Pre: false}}
	v, err := Eval(expr, vars)
	require.NoError(t, err)
	require.Equal(t, int64(5), v)
	require.Equal(t, "6", vars["i"])
}

func TestCommaReturnsRightOperand(t *testing.T) {
	expr := &ast.ArithExpr{Comma: &ast.ArithComma{X: intLit(1), Y: intLit(2)}}
	v, err := Eval(expr, mapVars{})
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
}
