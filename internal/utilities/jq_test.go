package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestCmdJqExtractsField(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, `{"name":"alice","age":30}`, "-r", ".name")
	require.Equal(t, 0, cmdJq(ctx))
	require.Equal(t, "alice\n", out.String())
}

func TestCmdJqInvalidJSONReportsError(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, errOut := stdinCtx(v, "not json", ".")
	require.Equal(t, 2, cmdJq(ctx))
	require.Contains(t, errOut.String(), "invalid JSON")
}

func TestCmdJqMissingQueryReportsError(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, errOut := stdinCtx(v, "{}")
	require.Equal(t, 2, cmdJq(ctx))
	require.Contains(t, errOut.String(), "missing query")
}
