package hostmount

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestLoadCopiesHostTreeIntoVFS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.sh"), []byte("echo hi\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "nested.txt"), []byte("nested"), 0o644))

	v := vfs.New(nil)
	require.NoError(t, Load(v, dir))

	data, err := v.ReadFile(MountPoint + "/main.sh")
	require.NoError(t, err)
	require.Equal(t, "echo hi\n", string(data))

	data, err = v.ReadFile(MountPoint + "/sub/nested.txt")
	require.NoError(t, err)
	require.Equal(t, "nested", string(data))
}

func TestWatcherResyncsExternalEdits(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "watched.txt")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0o644))

	v := vfs.New(nil)
	require.NoError(t, Load(v, dir))

	w, err := Start(v, dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(target, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		data, err := v.ReadFile(MountPoint + "/watched.txt")
		return err == nil && string(data) == "v2"
	}, 2*time.Second, 20*time.Millisecond)
}
