package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

// run parses and executes src against a fresh State rooted at an empty
// VFS, the same end-to-end shape the teacher's engine tests drive a
// script through (parse, build an engine, run, inspect stdout/exit code).
func run(t *testing.T, src string) (stdout, stderr string, exitCode int) {
	t.Helper()
	prog, err := ast.Parse(src)
	require.NoError(t, err)

	var outBuf, errBuf bytes.Buffer
	s := New(vfs.New(nil), strings.NewReader(""), &outBuf, &errBuf)
	exitCode = s.Run(prog)
	return outBuf.String(), errBuf.String(), exitCode
}

func TestSimpleCommandAndVariableExpansion(t *testing.T) {
	stdout, _, exit := run(t, `x=hello; echo "$x world"`)
	require.Equal(t, 0, exit)
	require.Equal(t, "hello world\n", stdout)
}

func TestIfElse(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"true branch", `if true; then echo yes; else echo no; fi`, "yes\n"},
		{"false branch", `if false; then echo yes; else echo no; fi`, "no\n"},
		{"elif", `if false; then echo a; elif true; then echo b; else echo c; fi`, "b\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, exit := run(t, tc.src)
			require.Equal(t, 0, exit)
			require.Equal(t, tc.want, stdout)
		})
	}
}

func TestForLoopOverWordList(t *testing.T) {
	stdout, _, exit := run(t, `for x in a b c; do echo "item:$x"; done`)
	require.Equal(t, 0, exit)
	require.Equal(t, "item:a\nitem:b\nitem:c\n", stdout)
}

func TestCStyleForLoop(t *testing.T) {
	stdout, _, exit := run(t, `for ((i=0; i<3; i++)); do echo $i; done`)
	require.Equal(t, 0, exit)
	require.Equal(t, "0\n1\n2\n", stdout)
}

func TestWhileLoop(t *testing.T) {
	stdout, _, exit := run(t, `i=0; while [ $i -lt 3 ]; do echo $i; i=$((i+1)); done`)
	require.Equal(t, 0, exit)
	require.Equal(t, "0\n1\n2\n", stdout)
}

func TestFunctionDeclAndCall(t *testing.T) {
	stdout, _, exit := run(t, `greet() { echo "hi $1"; }; greet world`)
	require.Equal(t, 0, exit)
	require.Equal(t, "hi world\n", stdout)
}

func TestPipeline(t *testing.T) {
	stdout, _, exit := run(t, `printf 'b\na\nc\n' | sort`)
	require.Equal(t, 0, exit)
	require.Equal(t, "a\nb\nc\n", stdout)
}

func TestAndOrShortCircuit(t *testing.T) {
	stdout, _, exit := run(t, `false && echo nope || echo yep`)
	require.Equal(t, 0, exit)
	require.Equal(t, "yep\n", stdout)
}

func TestCaseStatement(t *testing.T) {
	stdout, _, exit := run(t, `x=b; case $x in a) echo A;; b|c) echo BC;; *) echo other;; esac`)
	require.Equal(t, 0, exit)
	require.Equal(t, "BC\n", stdout)
}

func TestCommandSubstitution(t *testing.T) {
	stdout, _, exit := run(t, `echo "today is $(echo Monday)"`)
	require.Equal(t, 0, exit)
	require.Equal(t, "today is Monday\n", stdout)
}

func TestArithmeticExpansion(t *testing.T) {
	stdout, _, exit := run(t, `echo $((2 + 3 * 4))`)
	require.Equal(t, 0, exit)
	require.Equal(t, "14\n", stdout)
}

func TestArrayVariables(t *testing.T) {
	stdout, _, exit := run(t, `arr=(a b c); echo "${arr[1]}"; echo "${#arr[@]}"`)
	require.Equal(t, 0, exit)
	require.Equal(t, "b\n3\n", stdout)
}

func TestExitCodePropagation(t *testing.T) {
	_, _, exit := run(t, `exit 7`)
	require.Equal(t, 7, exit)
}

func TestErrexitStopsScript(t *testing.T) {
	stdout, _, exit := run(t, `set -e; echo one; false; echo two`)
	require.Equal(t, 1, exit)
	require.Equal(t, "one\n", stdout)
}

func TestErrexitStopsInsideForLoop(t *testing.T) {
	stdout, _, exit := run(t, `set -e; for i in 1 2 3; do false; echo $i; done`)
	require.Equal(t, 1, exit)
	require.Equal(t, "", stdout)
}

func TestErrexitStopsInsideFunctionBody(t *testing.T) {
	stdout, _, exit := run(t, `set -e; f(){ false; echo in; }; f`)
	require.Equal(t, 1, exit)
	require.Equal(t, "", stdout)
}

func TestErrexitStopsInsideIfBody(t *testing.T) {
	stdout, _, exit := run(t, `set -e; if true; then false; echo in; fi`)
	require.Equal(t, 1, exit)
	require.Equal(t, "", stdout)
}

func TestNounsetFailsOnUnsetVariable(t *testing.T) {
	_, stderr, exit := run(t, `set -u; echo $undefined`)
	require.Equal(t, 1, exit)
	require.Contains(t, stderr, "undefined: unbound variable")
}

func TestNounsetAllowsDefaultOperator(t *testing.T) {
	stdout, _, exit := run(t, `set -u; echo "${undefined:-fallback}"`)
	require.Equal(t, 0, exit)
	require.Equal(t, "fallback\n", stdout)
}

func TestNounsetDoesNotFireWhenUnset(t *testing.T) {
	stdout, _, exit := run(t, `echo "[$undefined]"`)
	require.Equal(t, 0, exit)
	require.Equal(t, "[]\n", stdout)
}

func TestCaseContinueResumesPatternTesting(t *testing.T) {
	stdout, _, exit := run(t, `x=b; case $x in a) echo A;;& b) echo B;;& c) echo C;; *) echo D;; esac`)
	require.Equal(t, 0, exit)
	require.Equal(t, "B\nD\n", stdout)
}

func TestCaseFallthroughStillRunsNextBodyUnconditionally(t *testing.T) {
	stdout, _, exit := run(t, `x=a; case $x in a) echo A;& b) echo B;; *) echo D;; esac`)
	require.Equal(t, 0, exit)
	require.Equal(t, "A\nB\n", stdout)
}

func TestHereDoc(t *testing.T) {
	stdout, _, exit := run(t, "cat <<EOF\nline one\nline two\nEOF\n")
	require.Equal(t, 0, exit)
	require.Equal(t, "line one\nline two\n", stdout)
}

func TestExportedVarVisibleToEnv(t *testing.T) {
	stdout, _, exit := run(t, `export FOO=bar; env | grep ^FOO=`)
	require.Equal(t, 0, exit)
	require.Equal(t, "FOO=bar\n", stdout)
}

func TestLocalAssignmentDoesNotEscapeSubshell(t *testing.T) {
	stdout, _, exit := run(t, `x=outer; (x=inner; echo "in:$x"); echo "out:$x"`)
	require.Equal(t, 0, exit)
	require.Equal(t, "in:inner\nout:outer\n", stdout)
}

func TestUnknownCommandExitsNotFound(t *testing.T) {
	_, stderr, exit := run(t, `this-command-does-not-exist-xyz`)
	require.Equal(t, 127, exit)
	require.Contains(t, stderr, "not found")
}

func TestRedirectOutThenCatReadsFile(t *testing.T) {
	stdout, _, exit := run(t, `echo hi > /tmp/out.txt; cat /tmp/out.txt`)
	require.Equal(t, 0, exit)
	require.Equal(t, "hi\n", stdout)
}
