package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestCmdSqlite3CreateInsertSelect(t *testing.T) {
	v := vfs.New(nil)
	script := "CREATE TABLE t (a INT, b TEXT); INSERT INTO t VALUES (1, 'x'); SELECT a, b FROM t;"
	ctx, out, _ := stdinCtx(v, "", ":memory:", script)
	require.Equal(t, 0, cmdSqlite3(ctx))
	require.Equal(t, "1|x\n", out.String())
}

func TestCmdSqlite3MissingDatabaseArgument(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, errOut := stdinCtx(v, "")
	require.Equal(t, 1, cmdSqlite3(ctx))
	require.Contains(t, errOut.String(), "missing database argument")
}
