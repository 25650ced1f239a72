package expand

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/ast"
)

type testVars struct {
	scalars map[string]string
	arrays  map[string][]string
}

func newTestVars() *testVars {
	return &testVars{scalars: map[string]string{}, arrays: map[string][]string{}}
}

func (v *testVars) Get(name string) (string, bool) {
	s, ok := v.scalars[name]
	return s, ok
}
func (v *testVars) GetArray(name string) ([]string, bool) {
	a, ok := v.arrays[name]
	return a, ok
}
func (v *testVars) Set(name, value string) { v.scalars[name] = value }
func (v *testVars) IsArray(name string) bool {
	_, ok := v.arrays[name]
	return ok
}

func newCtx(vars *testVars) *Context {
	return &Context{Vars: vars, IFSUnset: true, Special: map[string]string{}}
}

func litWord(s string) *ast.WordNode {
	return &ast.WordNode{Parts: []ast.WordPart{ast.Literal{Value: s}}}
}

func TestWordSplittingOnWhitespace(t *testing.T) {
	vars := newTestVars()
	vars.Set("X", "a b  c")
	ctx := newCtx(vars)
	word := &ast.WordNode{Parts: []ast.WordPart{ast.ParameterExpansion{Name: "X"}}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, out)
}

func TestDoubleQuotedPreventsSplitting(t *testing.T) {
	vars := newTestVars()
	vars.Set("X", "a b c")
	ctx := newCtx(vars)
	word := &ast.WordNode{Parts: []ast.WordPart{
		ast.DoubleQuoted{Parts: []ast.WordPart{ast.ParameterExpansion{Name: "X"}}},
	}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a b c"}, out)
}

func TestUnsetParameterVanishesUnquoted(t *testing.T) {
	ctx := newCtx(newTestVars())
	word := &ast.WordNode{Parts: []ast.WordPart{ast.ParameterExpansion{Name: "UNSET"}}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDefaultUnsetOperator(t *testing.T) {
	ctx := newCtx(newTestVars())
	pe := ast.ParameterExpansion{Name: "X", Op: &ast.ParamOp{Kind: ast.ParamOpDefaultUnset, ColonForm: true, Word: litWord("fallback")}}
	word := &ast.WordNode{Parts: []ast.WordPart{pe}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"fallback"}, out)
}

func TestAssignUnsetOperatorMutatesVars(t *testing.T) {
	vars := newTestVars()
	ctx := newCtx(vars)
	pe := ast.ParameterExpansion{Name: "X", Op: &ast.ParamOp{Kind: ast.ParamOpAssignUnset, ColonForm: true, Word: litWord("val")}}
	word := &ast.WordNode{Parts: []ast.WordPart{pe}}
	_, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	v, ok := vars.Get("X")
	require.True(t, ok)
	require.Equal(t, "val", v)
}

func TestRemoveSuffixShort(t *testing.T) {
	vars := newTestVars()
	vars.Set("FILE", "archive.tar.gz")
	ctx := newCtx(vars)
	pe := ast.ParameterExpansion{Name: "FILE", Op: &ast.ParamOp{Kind: ast.ParamOpRemoveSuffixShort, Pattern: litWord(".*")}}
	word := &ast.WordNode{Parts: []ast.WordPart{pe}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"archive.tar"}, out)
}

func TestRemoveSuffixLong(t *testing.T) {
	vars := newTestVars()
	vars.Set("FILE", "archive.tar.gz")
	ctx := newCtx(vars)
	pe := ast.ParameterExpansion{Name: "FILE", Op: &ast.ParamOp{Kind: ast.ParamOpRemoveSuffixLong, Pattern: litWord(".*")}}
	word := &ast.WordNode{Parts: []ast.WordPart{pe}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"archive"}, out)
}

func TestBraceExpansionRange(t *testing.T) {
	ctx := newCtx(newTestVars())
	word := &ast.WordNode{Parts: []ast.WordPart{
		ast.BraceExpansion{
			Prefix: litWord("file"),
			Items:  []ast.BraceItem{{IsRange: true, Start: "1", End: "3"}},
			Suffix: litWord(".txt"),
		},
	}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"file1.txt", "file2.txt", "file3.txt"}, out)
}

func TestAtSignInQuotesProducesSeparateFields(t *testing.T) {
	ctx := newCtx(newTestVars())
	ctx.Positional = []string{"a b", "c"}
	word := &ast.WordNode{Parts: []ast.WordPart{
		ast.DoubleQuoted{Parts: []ast.WordPart{ast.ParameterExpansion{Name: "@"}}},
	}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a b", "c"}, out)
}

func TestQuotedEmptyStringPreserved(t *testing.T) {
	ctx := newCtx(newTestVars())
	word := &ast.WordNode{Parts: []ast.WordPart{ast.SingleQuoted{Value: ""}}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{""}, out)
}

func TestCaseUpperAll(t *testing.T) {
	vars := newTestVars()
	vars.Set("X", "hello")
	ctx := newCtx(vars)
	pe := ast.ParameterExpansion{Name: "X", Op: &ast.ParamOp{Kind: ast.ParamOpCase, CaseUpper: true, CaseAll: true}}
	word := &ast.WordNode{Parts: []ast.WordPart{pe}}
	out, err := Words([]*ast.WordNode{word}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"HELLO"}, out)
}
