package utilities

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func stdinCtx(v *vfs.VFS, stdin string, args ...string) (ExecContext, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return ExecContext{
		Args:   args,
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errOut,
		VFS:    v,
		Cwd:    "/",
	}, &out, &errOut
}

func TestCmdHeadLimitsLines(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "1\n2\n3\n4\n5\n", "-n", "2")
	require.Equal(t, 0, cmdHead(ctx))
	require.Equal(t, "1\n2\n", out.String())
}

func TestCmdTailLimitsLines(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "1\n2\n3\n4\n5\n", "-n", "2")
	require.Equal(t, 0, cmdTail(ctx))
	require.Equal(t, "4\n5\n", out.String())
}

func TestCmdWcCountsLinesWordsChars(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "hello world\nfoo\n")
	require.Equal(t, 0, cmdWc(ctx))
	require.Equal(t, "      2       3      16\n", out.String())
}

func TestCmdSortNumericReverse(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "3\n1\n2\n", "-n", "-r")
	require.Equal(t, 0, cmdSort(ctx))
	require.Equal(t, "3\n2\n1\n", out.String())
}

func TestCmdUniqCollapsesAdjacentDuplicates(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "a\na\nb\na\n")
	require.Equal(t, 0, cmdUniq(ctx))
	require.Equal(t, "a\nb\na\n", out.String())
}

func TestCmdCutSelectsField(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "a:b:c\n", "-d", ":", "-f", "2")
	require.Equal(t, 0, cmdCut(ctx))
	require.Equal(t, "b\n", out.String())
}

func TestCmdTrTranslatesCharacters(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "hello", "a-z", "A-Z")
	require.Equal(t, 0, cmdTr(ctx))
	require.Equal(t, "HELLO", out.String())
}

func TestCmdTrDeleteMode(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "hello world", "-d", "lo")
	require.Equal(t, 0, cmdTr(ctx))
	require.Equal(t, "he wrd", out.String())
}

func TestCmdRevReversesLines(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "abc\n")
	require.Equal(t, 0, cmdRev(ctx))
	require.Equal(t, "cba\n", out.String())
}

func TestCmdSeqWithStartStopStep(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "", "1", "2", "5")
	require.Equal(t, 0, cmdSeq(ctx))
	require.Equal(t, "1\n3\n5\n", out.String())
}

func TestCmdEnvPrintsEnviron(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "")
	ctx.Env = []string{"FOO=bar", "BAZ=qux"}
	require.Equal(t, 0, cmdEnv(ctx))
	require.Equal(t, "FOO=bar\nBAZ=qux\n", out.String())
}
