package pipeline

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

func literalTarget(s string) *ast.WordNode {
	return &ast.WordNode{Parts: []ast.WordPart{ast.Literal{Value: s}}}
}

func targetFn(w *ast.WordNode) (string, error) {
	lit := w.Parts[0].(ast.Literal)
	return lit.Value, nil
}

func TestApplyOutRedirectCommitsOnCleanup(t *testing.T) {
	v := vfs.New(nil)
	base := Streams{Stdin: bytes.NewReader(nil), Stdout: io.Discard, Stderr: io.Discard}
	redirects := []ast.Redirect{{Kind: ast.RedirectOut, Target: literalTarget("/out.txt")}}

	streams, err := Apply(v, "/", base, redirects, targetFn)
	require.NoError(t, err)

	streams.Stdout.Write([]byte("hello"))
	require.False(t, v.Exists("/out.txt"))
	streams.Cleanup()

	data, err := v.ReadFile("/out.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestApplyAppendRedirectAppendsExisting(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/log.txt", []byte("first\n"), 0))
	base := Streams{Stdout: io.Discard, Stderr: io.Discard}
	redirects := []ast.Redirect{{Kind: ast.RedirectAppend, Target: literalTarget("/log.txt")}}

	streams, err := Apply(v, "/", base, redirects, targetFn)
	require.NoError(t, err)
	streams.Stdout.Write([]byte("second\n"))
	streams.Cleanup()

	data, _ := v.ReadFile("/log.txt")
	require.Equal(t, "first\nsecond\n", string(data))
}

func TestApplyInRedirectReadsFromVFS(t *testing.T) {
	v := vfs.New(nil)
	require.NoError(t, v.WriteFile("/in.txt", []byte("payload"), 0))
	base := Streams{Stdout: io.Discard, Stderr: io.Discard}
	redirects := []ast.Redirect{{Kind: ast.RedirectIn, Target: literalTarget("/in.txt")}}

	streams, err := Apply(v, "/", base, redirects, targetFn)
	require.NoError(t, err)

	data, err := io.ReadAll(streams.Stdin)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestApplyDupErrToOutSharesStdoutWriter(t *testing.T) {
	v := vfs.New(nil)
	var out bytes.Buffer
	base := Streams{Stdout: &out, Stderr: io.Discard}
	redirects := []ast.Redirect{{Kind: ast.RedirectDupErrToOut}}

	streams, err := Apply(v, "/", base, redirects, targetFn)
	require.NoError(t, err)
	require.Equal(t, streams.Stdout, streams.Stderr)
}

func TestApplyHereDocSetsStdin(t *testing.T) {
	v := vfs.New(nil)
	base := Streams{Stdout: io.Discard, Stderr: io.Discard}
	redirects := []ast.Redirect{{Kind: ast.RedirectHereDoc, HereDoc: "line one\nline two\n"}}

	streams, err := Apply(v, "/", base, redirects, targetFn)
	require.NoError(t, err)
	data, _ := io.ReadAll(streams.Stdin)
	require.Equal(t, "line one\nline two\n", string(data))
}
