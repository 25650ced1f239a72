package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.Mkdir("/home/user/project", true))
	require.NoError(t, v.WriteFile("/home/user/project/a.txt", []byte("hello"), 0o644))
	require.NoError(t, v.Symlink("a.txt", "/home/user/project/link.txt"))

	data, err := Encode(v)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	restored, err := Decode(data)
	require.NoError(t, err)

	content, err := restored.ReadFile("/home/user/project/a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))

	target, err := restored.Readlink("/home/user/project/link.txt")
	require.NoError(t, err)
	require.Equal(t, "a.txt", target)
}

func TestSummaryListsEntries(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/file.txt", []byte("x"), 0o644))
	data, err := Encode(v)
	require.NoError(t, err)

	out, err := Summary(data)
	require.NoError(t, err)
	require.Contains(t, out, "/file.txt")
	require.Contains(t, out, "file")
}
