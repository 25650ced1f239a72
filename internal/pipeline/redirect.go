package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

// Streams is the set of applied I/O streams for one command, along with a
// cleanup hook that must run once the command finishes (closing any file
// handles opened to satisfy a redirect).
type Streams struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Cleanup func()
}

// vfsWriteCloser buffers writes and commits them to the VFS when commit is
// called, so a
// redirect's target is only ever visibly mutated once — matching
// spec.md's "redirection writes are atomic" requirement.
type vfsWriteCloser struct {
	v      *vfs.VFS
	path   string
	append bool
	buf    bytes.Buffer
}

func (w *vfsWriteCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *vfsWriteCloser) commit() error {
	if w.append {
		return w.v.AppendFile(w.path, w.buf.Bytes(), 0)
	}
	return w.v.WriteFile(w.path, w.buf.Bytes(), 0)
}

// Apply resolves redirects against v in order (later redirects win, as in
// bash) and returns the resulting streams. base supplies the defaults for
// anything not overridden (e.g. the pipeline-wired stdin/stdout).
func Apply(v *vfs.VFS, cwd string, base Streams, redirects []ast.Redirect, target func(*ast.WordNode) (string, error)) (Streams, error) {
	result := base
	var pending []*vfsWriteCloser
	prevCleanup := base.Cleanup

	for _, r := range redirects {
		switch r.Kind {
		case ast.RedirectIn:
			path, err := requireTarget(r, target)
			if err != nil {
				return Streams{}, err
			}
			data, err := v.ReadFile(resolvePath(cwd, path))
			if err != nil {
				return Streams{}, fmt.Errorf("bash: %s: %w", path, err)
			}
			result.Stdin = bytes.NewReader(data)

		case ast.RedirectOut, ast.RedirectAppend:
			path, err := requireTarget(r, target)
			if err != nil {
				return Streams{}, err
			}
			w := &vfsWriteCloser{v: v, path: resolvePath(cwd, path), append: r.Kind == ast.RedirectAppend}
			pending = append(pending, w)
			result.Stdout = w

		case ast.RedirectErr:
			path, err := requireTarget(r, target)
			if err != nil {
				return Streams{}, err
			}
			w := &vfsWriteCloser{v: v, path: resolvePath(cwd, path)}
			pending = append(pending, w)
			result.Stderr = w

		case ast.RedirectOutErr:
			path, err := requireTarget(r, target)
			if err != nil {
				return Streams{}, err
			}
			w := &vfsWriteCloser{v: v, path: resolvePath(cwd, path)}
			pending = append(pending, w)
			result.Stdout = w
			result.Stderr = w

		case ast.RedirectDupErrToOut:
			result.Stderr = result.Stdout

		case ast.RedirectHereString:
			path, err := requireTarget(r, target)
			if err != nil {
				return Streams{}, err
			}
			result.Stdin = strings.NewReader(path + "\n")

		case ast.RedirectHereDoc:
			result.Stdin = strings.NewReader(r.HereDoc)
		}
	}

	result.Cleanup = func() {
		for _, w := range pending {
			_ = w.commit()
		}
		if prevCleanup != nil {
			prevCleanup()
		}
	}
	return result, nil
}

func requireTarget(r ast.Redirect, target func(*ast.WordNode) (string, error)) (string, error) {
	if r.Target == nil {
		return "", fmt.Errorf("bash: redirect missing target")
	}
	return target(r.Target)
}

func resolvePath(cwd, path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	if cwd == "" || cwd == "/" {
		return "/" + path
	}
	return strings.TrimSuffix(cwd, "/") + "/" + path
}
