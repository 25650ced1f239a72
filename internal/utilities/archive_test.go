package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestGzipGunzipRoundTrip(t *testing.T) {
	v := vfs.New(nil)
	gzipCtx, out, _ := stdinCtx(v, "plain text payload")
	require.Equal(t, 0, cmdGzip(gzipCtx))
	compressed := out.Bytes()

	gunzipCtx, decompressed, _ := stdinCtx(v, string(compressed))
	require.Equal(t, 0, cmdGunzip(gunzipCtx))
	require.Equal(t, "plain text payload", decompressed.String())
}

func TestTarCreateExtractRoundTrip(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/src.txt", []byte("tarred content"), 0))

	createCtx, _, _ := stdinCtx(v, "", "-cf", "/out.tar", "/src.txt")
	require.Equal(t, 0, cmdTar(createCtx))
	require.True(t, v.Exists("/out.tar"))

	require.NoError(t, v.Rm("/src.txt", false, true))
	extractCtx, _, _ := stdinCtx(v, "", "-xf", "/out.tar")
	require.Equal(t, 0, cmdTar(extractCtx))

	data, err := v.ReadFile("/src.txt")
	require.NoError(t, err)
	require.Equal(t, "tarred content", string(data))
}

func TestTarListShowsMembers(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/a.txt", []byte("x"), 0))
	createCtx, _, _ := stdinCtx(v, "", "-cf", "/out.tar", "/a.txt")
	require.Equal(t, 0, cmdTar(createCtx))

	listCtx, out, _ := stdinCtx(v, "", "-tf", "/out.tar")
	require.Equal(t, 0, cmdTar(listCtx))
	require.Contains(t, out.String(), "a.txt")
}
