package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestCmdGrepFiltersMatchingLines(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "apple\nbanana\ncherry\n", "an")
	require.Equal(t, 0, cmdGrep(ctx))
	require.Equal(t, "banana\n", out.String())
}

func TestCmdGrepInvertMatch(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "apple\nbanana\ncherry\n", "-v", "an")
	require.Equal(t, 0, cmdGrep(ctx))
	require.Equal(t, "apple\ncherry\n", out.String())
}

func TestCmdGrepNoMatchReturnsOne(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, _ := stdinCtx(v, "apple\n", "zzz")
	require.Equal(t, 1, cmdGrep(ctx))
}

func TestCmdSedSubstitutesGlobally(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "foo bar foo\n", "s/foo/baz/g")
	require.Equal(t, 0, cmdSed(ctx))
	require.Equal(t, "baz bar baz\n", out.String())
}

func TestCmdSedSubstitutesFirstOnly(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "foo bar foo\n", "s/foo/baz/")
	require.Equal(t, 0, cmdSed(ctx))
	require.Equal(t, "baz bar foo\n", out.String())
}

func TestCmdFindFiltersByName(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.Mkdir("/dir", true))
	require.NoError(t, v.WriteFile("/dir/a.txt", []byte("x"), 0))
	require.NoError(t, v.WriteFile("/dir/b.log", []byte("x"), 0))
	ctx, out, _ := stdinCtx(v, "", "/dir", "-name", "*.txt")
	require.Equal(t, 0, cmdFind(ctx))
	require.Contains(t, out.String(), "a.txt")
	require.NotContains(t, out.String(), "b.log")
}

func TestCmdXargsDispatchesToNamedUtility(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/greeting.txt", []byte("hi"), 0))
	ctx, out, _ := stdinCtx(v, "/greeting.txt\n", "cat")
	require.Equal(t, 0, cmdXargs(ctx))
	require.Equal(t, "hi", out.String())
}
