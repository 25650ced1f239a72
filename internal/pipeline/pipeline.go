// Package pipeline wires a sequence of command stages together with
// os.Pipe-backed streams, mirroring spec.md §4.3's pipeline/redirection
// engine. It knows nothing about the AST or the interpreter: callers pass
// a Stage func per command and get back each stage's exit code.
package pipeline

import (
	"io"
	"os"
	"sync"

	"github.com/vercel-labs/just-bash/internal/invariant"
)

// Stage runs one pipeline command with the given stdin/stdout/stderr and
// returns its exit code.
type Stage func(index int, stdin io.Reader, stdout, stderr io.Writer) int

// Run executes stages left to right, connecting stage i's stdout to stage
// i+1's stdin via an os.Pipe. initialStdin feeds the first stage;
// finalStdout receives the last stage's output. Every stage (not just the
// last) writes stderr to sharedStderr, matching bash's behavior of never
// redirecting a mid-pipeline stage's stderr through the pipe unless `|&`
// was used for that junction.
func Run(stages []Stage, initialStdin io.Reader, finalStdout, sharedStderr io.Writer, stderrAlso []bool) []int {
	invariant.Precondition(len(stages) > 0, "pipeline must have at least one stage")
	n := len(stages)
	exitCodes := make([]int, n)

	if n == 1 {
		exitCodes[0] = stages[0](0, initialStdin, finalStdout, sharedStderr)
		return exitCodes
	}

	readers := make([]*os.File, n-1)
	writers := make([]*os.File, n-1)
	for i := 0; i < n-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			for j := 0; j < i; j++ {
				_ = readers[j].Close()
				_ = writers[j].Close()
			}
			for j := range exitCodes {
				exitCodes[j] = 1
			}
			return exitCodes
		}
		readers[i] = pr
		writers[i] = pw
	}

	var readerOnce, writerOnce []sync.Once
	readerOnce = make([]sync.Once, n-1)
	writerOnce = make([]sync.Once, n-1)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()

			var stdin io.Reader = initialStdin
			if i > 0 {
				stdin = readers[i-1]
				defer readerOnce[i-1].Do(func() { _ = readers[i-1].Close() })
			}

			var stdout io.Writer = finalStdout
			stageStderr := sharedStderr
			if i < n-1 {
				stdout = writers[i]
				if len(stderrAlso) > i && stderrAlso[i] {
					stageStderr = writers[i]
				}
				defer writerOnce[i].Do(func() { _ = writers[i].Close() })
			}

			exitCodes[i] = stages[i](i, stdin, stdout, stageStderr)
		}()
	}
	wg.Wait()
	return exitCodes
}

// PipeStatus reports whether pipefail should make the pipeline's overall
// exit code the rightmost non-zero stage instead of just the last stage's.
func PipeStatus(exitCodes []int, pipefail bool) int {
	if !pipefail {
		return exitCodes[len(exitCodes)-1]
	}
	for i := len(exitCodes) - 1; i >= 0; i-- {
		if exitCodes[i] != 0 {
			return exitCodes[i]
		}
	}
	return 0
}
