package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestCmdJsExecRunsInlineScript(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "", "-e", `console.log("hello from js")`)
	require.Equal(t, 0, cmdJsExec(ctx))
	require.Equal(t, "hello from js\n", out.String())
}

func TestCmdJsExecReadsScriptFromFile(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/script.js", []byte(`console.log(1 + 2)`), 0))
	ctx, out, _ := stdinCtx(v, "", "/script.js")
	require.Equal(t, 0, cmdJsExec(ctx))
	require.Equal(t, "3\n", out.String())
}

func TestCmdJsExecMissingScriptArgument(t *testing.T) {
	v := vfs.New(nil)
	ctx, _, errOut := stdinCtx(v, "", "-e")
	require.Equal(t, 2, cmdJsExec(ctx))
	require.Contains(t, errOut.String(), "requires a script argument")
}
