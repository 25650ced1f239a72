package interp

import (
	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/expand"
	"github.com/vercel-labs/just-bash/internal/pipeline"
)

func (s *State) applyRedirectsTo(base streamSet, redirects []ast.Redirect) (streamSet, func(), error) {
	if len(redirects) == 0 {
		return base, func() {}, nil
	}
	baseStreams := pipeline.Streams{Stdin: base.Stdin, Stdout: base.Stdout, Stderr: base.Stderr}
	result, err := pipeline.Apply(s.VFS, s.Cwd, baseStreams, redirects, func(w *ast.WordNode) (string, error) {
		words, err := expand.Words([]*ast.WordNode{w}, s.expandCtx())
		if err != nil {
			return "", err
		}
		if len(words) == 0 {
			return "", nil
		}
		return words[0], nil
	})
	if err != nil {
		return streamSet{}, func() {}, err
	}
	cleanup := func() {}
	if result.Cleanup != nil {
		cleanup = result.Cleanup
	}
	return streamSet{Stdin: result.Stdin, Stdout: result.Stdout, Stderr: result.Stderr}, cleanup, nil
}
