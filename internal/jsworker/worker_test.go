package jsworker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func TestRunConsoleLogWritesStdout(t *testing.T) {
	res := Run(`console.log("hi")`, Options{VFS: vfs.New(nil), Cwd: "/"})
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "hi\n", res.Stdout)
}

func TestRunConsoleErrorWritesStderr(t *testing.T) {
	res := Run(`console.error("bad")`, Options{VFS: vfs.New(nil), Cwd: "/"})
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "bad\n", res.Stderr)
}

func TestRunUncaughtExceptionExitsOne(t *testing.T) {
	res := Run(`throw new Error("boom")`, Options{VFS: vfs.New(nil), Cwd: "/"})
	require.Equal(t, 1, res.ExitCode)
	require.Contains(t, res.Stderr, "boom")
}

func TestRunProcessExitSetsExitCode(t *testing.T) {
	res := Run(`process.exit(3)`, Options{VFS: vfs.New(nil), Cwd: "/"})
	require.Equal(t, 3, res.ExitCode)
}

func TestRunFsReadWriteRoundTrip(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/data.txt", []byte("stored"), 0))
	res := Run(`console.log(fs.readFileSync("/data.txt"))`, Options{VFS: v, Cwd: "/"})
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "stored\n", res.Stdout)
}

func TestRunTimeoutInterruptsInfiniteLoop(t *testing.T) {
	res := Run(`while (true) {}`, Options{VFS: vfs.New(nil), Cwd: "/", Timeout: 50 * time.Millisecond})
	require.Equal(t, 124, res.ExitCode)
}

func TestRunChildProcessExecSync(t *testing.T) {
	run := func(script string) (string, int) {
		return "shell output for: " + script, 0
	}
	res := Run(`console.log(child_process.execSync("echo hi"))`, Options{
		VFS: vfs.New(nil), Cwd: "/", RunShell: run,
	})
	require.Equal(t, 0, res.ExitCode)
	require.Contains(t, res.Stdout, "shell output for: echo hi")
}
