package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleCommand(t *testing.T) {
	prog, err := Parse("echo hello world")
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	sc, ok := prog.Statements[0].(*SimpleCommand)
	require.True(t, ok)
	require.Len(t, sc.Words, 3)
}

func TestParsePipeline(t *testing.T) {
	prog, err := Parse("cat foo | grep bar | wc -l")
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	p, ok := prog.Statements[0].(*Pipeline)
	require.True(t, ok)
	require.Len(t, p.Commands, 3)
}

func TestParseAndOrList(t *testing.T) {
	prog, err := Parse("true && echo yes || echo no")
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	_, ok := prog.Statements[0].(*List)
	require.True(t, ok)
}

func TestParseIfElif(t *testing.T) {
	prog, err := Parse(`if true; then echo a; elif false; then echo b; else echo c; fi`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	ifStmt, ok := prog.Statements[0].(*If)
	require.True(t, ok)
	require.Len(t, ifStmt.ElifConds, 1)
	require.NotEmpty(t, ifStmt.Else)
}

func TestParseForWordList(t *testing.T) {
	prog, err := Parse(`for x in a b c; do echo $x; done`)
	require.NoError(t, err)
	f, ok := prog.Statements[0].(*For)
	require.True(t, ok)
	require.Equal(t, "x", f.Var)
	require.Len(t, f.Words, 3)
}

func TestParseCStyleFor(t *testing.T) {
	prog, err := Parse(`for ((i=0; i<10; i++)); do echo $i; done`)
	require.NoError(t, err)
	f, ok := prog.Statements[0].(*For)
	require.True(t, ok)
	require.Nil(t, f.Words)
	require.NotNil(t, f.Init)
	require.NotNil(t, f.Cond)
	require.NotNil(t, f.Post)
}

func TestParseCase(t *testing.T) {
	prog, err := Parse(`case $x in a) echo A ;; b|c) echo BC ;; *) echo other ;; esac`)
	require.NoError(t, err)
	c, ok := prog.Statements[0].(*Case)
	require.True(t, ok)
	require.Len(t, c.Items, 3)
	require.Len(t, c.Items[1].Patterns, 2)
}

func TestParseFuncDecl(t *testing.T) {
	prog, err := Parse(`greet() { echo hi; }`)
	require.NoError(t, err)
	fd, ok := prog.Statements[0].(*FuncDecl)
	require.True(t, ok)
	require.Equal(t, "greet", fd.Name)
}

func TestParseParameterExpansionDefault(t *testing.T) {
	prog, err := Parse(`echo ${FOO:-bar}`)
	require.NoError(t, err)
	sc := prog.Statements[0].(*SimpleCommand)
	word := sc.Words[1]
	pe, ok := word.Parts[0].(ParameterExpansion)
	require.True(t, ok)
	require.Equal(t, "FOO", pe.Name)
	require.NotNil(t, pe.Op)
	require.Equal(t, ParamOpDefaultUnset, pe.Op.Kind)
	require.True(t, pe.Op.ColonForm)
}

func TestParseBraceExpansionRange(t *testing.T) {
	prog, err := Parse(`echo a{1..3}b`)
	require.NoError(t, err)
	sc := prog.Statements[0].(*SimpleCommand)
	be, ok := sc.Words[1].Parts[0].(BraceExpansion)
	require.True(t, ok)
	require.Len(t, be.Items, 1)
	require.True(t, be.Items[0].IsRange)
	require.Equal(t, "1", be.Items[0].Start)
	require.Equal(t, "3", be.Items[0].End)
}

func TestParseArithmeticStatement(t *testing.T) {
	prog, err := Parse(`(( x = 1 + 2 ))`)
	require.NoError(t, err)
	as, ok := prog.Statements[0].(*ArithStatement)
	require.True(t, ok)
	require.NotNil(t, as.Expr.Assign)
}

func TestParseRedirections(t *testing.T) {
	prog, err := Parse(`echo hi > out.txt 2>&1`)
	require.NoError(t, err)
	rs, ok := prog.Statements[0].(*RedirectedStatement)
	require.True(t, ok)
	require.Len(t, rs.Redirects, 2)
}

func TestParseForWordListLiterals(t *testing.T) {
	prog, err := Parse(`for x in a b c; do echo $x; done`)
	require.NoError(t, err)
	f := prog.Statements[0].(*For)

	got := make([]string, len(f.Words))
	for i, w := range f.Words {
		got[i] = w.Parts[0].(Literal).Value
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("word list literals mismatch (-want +got):\n%s", diff)
	}
}
