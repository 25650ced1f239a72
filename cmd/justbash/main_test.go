package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureStreams redirects os.Stdout/os.Stderr for the duration of fn,
// the same lockdown-and-restore shape the teacher's main.go uses around
// its secret scrubber, minus the scrubbing.
func captureStreams(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)

	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW
	defer func() { os.Stdout, os.Stderr = origOut, origErr }()

	fn()

	outW.Close()
	errW.Close()
	outData, _ := io.ReadAll(outR)
	errData, _ := io.ReadAll(errR)
	return string(outData), string(errData)
}

func TestRunInlineScript(t *testing.T) {
	var code int
	stdout, _ := captureStreams(t, func() {
		code = run([]string{"-c", "echo hello"})
	})
	require.Equal(t, 0, code)
	require.Equal(t, "hello\n", stdout)
}

func TestRunJSONEnvelope(t *testing.T) {
	var code int
	stdout, _ := captureStreams(t, func() {
		code = run([]string{"--json", "-c", "echo hi; echo bad 1>&2; exit 3"})
	})
	require.Equal(t, 3, code)

	var envelope struct {
		Stdout   string `json:"stdout"`
		Stderr   string `json:"stderr"`
		ExitCode int    `json:"exitCode"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &envelope))
	require.Equal(t, "hi\n", envelope.Stdout)
	require.Equal(t, "bad\n", envelope.Stderr)
	require.Equal(t, 3, envelope.ExitCode)
}

func TestRunErrexitStopsAfterFailure(t *testing.T) {
	var code int
	stdout, _ := captureStreams(t, func() {
		code = run([]string{"-e", "-c", "echo one; false; echo two"})
	})
	require.Equal(t, 1, code)
	require.Equal(t, "one\n", stdout)
}

func TestRunMissingScriptIsAnError(t *testing.T) {
	var code int
	_, stderr := captureStreams(t, func() {
		code = run(nil)
	})
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "no script given")
}

func TestRunRootMountsHostDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("from host"), 0o644))

	var code int
	stdout, _ := captureStreams(t, func() {
		code = run([]string{"--root", dir, "-c", "cat /home/user/project/a.txt"})
	})
	require.Equal(t, 0, code)
	require.Equal(t, "from host", stdout)
}

func TestRunReadOnlyByDefaultRejectsWrite(t *testing.T) {
	var code int
	_, stderr := captureStreams(t, func() {
		code = run([]string{"-c", "echo data > /newfile.txt"})
	})
	require.NotEqual(t, 0, code)
	require.NotEmpty(t, stderr)
}

func TestRunAllowWritePermitsWrite(t *testing.T) {
	var code int
	_, _ = captureStreams(t, func() {
		code = run([]string{"--allow-write", "-c", "echo data > /newfile.txt && cat /newfile.txt"})
	})
	require.Equal(t, 0, code)
}

func TestRunVersionFlag(t *testing.T) {
	var code int
	stdout, _ := captureStreams(t, func() {
		code = run([]string{"--version"})
	})
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "just-bash")
}

func TestRunSnapshotOutWritesFile(t *testing.T) {
	snapOut := filepath.Join(t.TempDir(), "snap.cbor")
	var code int
	_, _ = captureStreams(t, func() {
		code = run([]string{"--allow-write", "--snapshot-out", snapOut, "-c", "echo x > /f.txt"})
	})
	require.Equal(t, 0, code)
	data, err := os.ReadFile(snapOut)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}
