package utilities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestZipUnzipRoundTrip(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/payload.txt", []byte("archived content"), 0))

	zipCtx, _, _ := stdinCtx(v, "", "/out.zip", "/payload.txt")
	require.Equal(t, 0, cmdZip(zipCtx))
	require.True(t, v.Exists("/out.zip"))

	require.NoError(t, v.Rm("/payload.txt", false, true))
	unzipCtx, _, _ := stdinCtx(v, "", "/out.zip")
	require.Equal(t, 0, cmdUnzip(unzipCtx))

	data, err := v.ReadFile("/payload.txt")
	require.NoError(t, err)
	require.Equal(t, "archived content", string(data))
}
