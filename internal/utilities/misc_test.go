package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestCmdExprArithmetic(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "", "3", "+", "4")
	require.Equal(t, 0, cmdExpr(ctx))
	require.Equal(t, "7\n", out.String())
}

func TestCmdExprZeroResultExitsOne(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "", "2", "-", "2")
	require.Equal(t, 1, cmdExpr(ctx))
	require.Equal(t, "0\n", out.String())
}

func TestCmdExprDivisionByZero(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, errOut := stdinCtx(v, "", "1", "/", "0")
	require.Equal(t, 2, cmdExpr(ctx))
	require.Contains(t, errOut.String(), "division by zero")
}

func TestCmdDiffIdenticalFilesExitsZero(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/a.txt", []byte("same\n"), 0))
	require.NoError(t, v.WriteFile("/b.txt", []byte("same\n"), 0))
	ctx, _, _ := stdinCtx(v, "", "/a.txt", "/b.txt")
	require.Equal(t, 0, cmdDiff(ctx))
}

func TestCmdDiffDifferingFilesExitsOne(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/a.txt", []byte("one\n"), 0))
	require.NoError(t, v.WriteFile("/b.txt", []byte("two\n"), 0))
	ctx, out, _ := stdinCtx(v, "", "/a.txt", "/b.txt")
	require.Equal(t, 1, cmdDiff(ctx))
	require.Contains(t, out.String(), "1c1")
}

func TestCmdWhichReportsKnownUtility(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "", "cat", "nonexistent-cmd")
	require.Equal(t, 1, cmdWhich(ctx))
	require.Contains(t, out.String(), "/usr/bin/cat")
	require.Contains(t, out.String(), "nonexistent-cmd not found")
}

func TestCmdSleepShortIntervalSucceeds(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, _ := stdinCtx(v, "", "0.01")
	require.Equal(t, 0, cmdSleep(ctx))
}
