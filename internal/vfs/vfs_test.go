package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.WriteFile("/tmp/a.txt", []byte("hello"), 0))
	got, err := v.ReadFile("/tmp/a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestWriteFileRequiresExistingParent(t *testing.T) {
	v := New(nil)
	err := v.WriteFile("/missing/a.txt", []byte("x"), 0)
	require.Error(t, err)
}

func TestMkdirRecursive(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.Mkdir("/a/b/c", true))
	st, err := v.Stat("/a/b/c")
	require.NoError(t, err)
	require.True(t, st.IsDirectory)

	// Existing directory + recursive succeeds silently.
	require.NoError(t, v.Mkdir("/a/b/c", true))

	err = v.Mkdir("/x/y", false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRmNonRecursiveOnDirectoryFails(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.Mkdir("/a", true))
	require.NoError(t, v.WriteFile("/a/f", []byte("x"), 0))
	err := v.Rm("/a", false, false)
	require.ErrorIs(t, err, ErrIsADirectory)
	require.NoError(t, v.Rm("/a", true, false))
	require.False(t, v.Exists("/a"))
}

func TestSymlinkResolution(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.Mkdir("/real", true))
	require.NoError(t, v.WriteFile("/real/f.txt", []byte("data"), 0))
	require.NoError(t, v.Symlink("/real", "/link"))

	data, err := v.ReadFile("/link/f.txt")
	require.NoError(t, err)
	require.Equal(t, "data", string(data))

	target, err := v.Readlink("/link")
	require.NoError(t, err)
	require.Equal(t, "/real", target)
}

func TestReadOnlyMode(t *testing.T) {
	v := New(nil)
	v.SetReadOnly(true)
	err := v.WriteFile("/a.txt", []byte("x"), 0)
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestSnapshotRestoreIsolatesMutations(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.WriteFile("/a.txt", []byte("before"), 0))
	snap := v.Snapshot()

	require.NoError(t, v.WriteFile("/a.txt", []byte("after"), 0))
	require.NoError(t, v.WriteFile("/b.txt", []byte("new"), 0))

	v.Restore(snap)

	data, err := v.ReadFile("/a.txt")
	require.NoError(t, err)
	require.Equal(t, "before", string(data))
	require.False(t, v.Exists("/b.txt"))
}

func TestReaddirSorted(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.Mkdir("/d", true))
	require.NoError(t, v.WriteFile("/d/zeta", []byte("1"), 0))
	require.NoError(t, v.WriteFile("/d/alpha", []byte("1"), 0))
	names, err := v.Readdir("/d")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "zeta"}, names)
}
