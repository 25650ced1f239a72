package interp

import (
	"io"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/pipeline"
)

func (s *State) execPipeline(n *ast.Pipeline) error {
	stages := make([]pipeline.Stage, len(n.Commands))
	// Each stage gets its own forked state sharing the same *vfs.VFS (so
	// writes are visible to siblings reading the same paths) but with
	// independent streams and — like a real subshell — independent
	// variable scope, since a bash pipeline stage runs in a subshell.
	for i, cmd := range n.Commands {
		cmd := cmd
		stages[i] = func(index int, stdin io.Reader, stdout, stderr io.Writer) int {
			child := s.fork()
			child.Stdin, child.Stdout, child.Stderr = stdin, stdout, stderr
			err := child.exec(cmd)
			if sig, ok := asSignal(err); ok && sig.kind == sigExit {
				return sig.exitCode
			}
			return child.LastExit
		}
	}

	exitCodes := pipeline.Run(stages, s.Stdin, s.Stdout, s.Stderr, n.StderrAlso)
	code := pipeline.PipeStatus(exitCodes, s.Options.Pipefail)
	if n.Negate {
		if code == 0 {
			code = 1
		} else {
			code = 0
		}
	}
	s.LastExit = code
	return nil
}
