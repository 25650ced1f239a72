package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/netgate"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestCmdPsqlWithoutGateDisabled(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, errOut := stdinCtx(v, "", "-h", "db.internal", "-c", "SELECT 1")
	require.Equal(t, 1, cmdPsql(ctx))
	require.Contains(t, errOut.String(), "network access is disabled")
}

func TestCmdPsqlHostNotAllowListed(t *testing.T) {
	v := vfs.New(nil)
	gate, err := netgate.NewPostgresGate([]interface{}{"db.internal"})
	require.NoError(t, err)
	ctx, _, errOut := stdinCtx(v, "", "-h", "not-allowed.internal", "-c", "SELECT 1")
	ctx.PGGate = gate
	require.Equal(t, 1, cmdPsql(ctx))
	require.Contains(t, errOut.String(), "not allowed")
}
