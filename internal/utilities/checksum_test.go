package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestCmdMd5sumOfStdin(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "hello")
	code, err := Run("md5sum", ctx)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "  -\n")
}

func TestCmdSha256sumOfStdin(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "abc")
	code, err := Run("sha256sum", ctx)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Regexp(t, "^[0-9a-f]{64}  -\n$", out.String())
}

func TestCmdBase64RoundTrip(t *testing.T) {
	v := vfs.New(nil)
	encodeCtx, out, _ := stdinCtx(v, "hello world")
	require.Equal(t, 0, cmdBase64(encodeCtx))
	encoded := out.String()

	decodeCtx, decoded, _ := stdinCtx(v, encoded, "-d")
	require.Equal(t, 0, cmdBase64(decodeCtx))
	require.Equal(t, "hello world", decoded.String())
}

func TestCmdB2sumProducesHexDigest(t *testing.T) {
	v := vfs.New(nil)
	ctx, out, _ := stdinCtx(v, "data")
	require.Equal(t, 0, cmdB2sum(ctx))
	require.Regexp(t, "^[0-9a-f]{64}  -\n$", out.String())
}
