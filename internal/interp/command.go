package interp

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/vercel-labs/just-bash/internal/arith"
	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/expand"
	"github.com/vercel-labs/just-bash/internal/utilities"
)

// expandCtx builds the expand.Context reflecting the current variable
// table, positional parameters, and the command/process substitution
// callbacks that re-enter this same interpreter.
func (s *State) expandCtx() *expand.Context {
	ifs, ifsSet := s.Get("IFS")
	return &expand.Context{
		Vars:       s,
		IFS:        ifs,
		IFSUnset:   !ifsSet,
		Nounset:    s.Options.Nounset,
		Positional: s.Positional,
		Special:    s.specials(),
		RunCommandSubst: func(script string) (string, error) {
			return s.runCommandSubst(script)
		},
		OpenProcessSubst: func(script string, input bool) (string, func(), error) {
			return s.runProcessSubst(script, input)
		},
		Glob: func(pattern string) ([]string, bool) {
			return s.globFiles(pattern)
		},
		HomeDir: func(user string) (string, bool) {
			if user == "" {
				if h, ok := s.Get("HOME"); ok {
					return h, true
				}
				return "/root", true
			}
			return "", false
		},
	}
}

func (s *State) runCommandSubst(script string) (string, error) {
	prog, err := ast.Parse(script)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	snapshot := s.VFS.Snapshot()
	child := s.fork()
	child.Stdout = &buf
	child.LastExit = 0
	exit := child.Run(prog)
	s.VFS.Restore(snapshot)
	s.LastExit = exit
	return buf.String(), nil
}

// runSubprocessShell backs js-exec's child_process bindings (spec.md
// §4.6): the guest's exec/execSync re-enters this same interpreter as a
// fresh shell invocation rather than spawning a real OS process.
func (s *State) runSubprocessShell(script string) (string, int) {
	out, err := s.runCommandSubst(script)
	if err != nil {
		return "", 1
	}
	return out, s.LastExit
}

func (s *State) runProcessSubst(script string, input bool) (string, func(), error) {
	// No real file-descriptor plumbing in this sandboxed engine. For
	// `<(...)` the script runs now and its output is captured in a
	// VFS-backed temp file whose path is handed back. For `>(...)` only an
	// empty temp file is created and its path handed back; the script is
	// not run, so nothing written to that path reaches it.
	s.procSubstSeq++
	path := fmt.Sprintf("/tmp/procsubst-%d", s.procSubstSeq)
	if input {
		out, err := s.runCommandSubst(script)
		if err != nil {
			return "", nil, err
		}
		if err := s.VFS.WriteFile(path, []byte(out), 0); err != nil {
			return "", nil, err
		}
		return path, func() {}, nil
	}
	if err := s.VFS.WriteFile(path, nil, 0); err != nil {
		return "", nil, err
	}
	return path, func() {}, nil
}

func (s *State) globFiles(pattern string) ([]string, bool) {
	dir := s.Cwd
	base := pattern
	if idx := strings.LastIndex(pattern, "/"); idx >= 0 {
		dir = pattern[:idx]
		if dir == "" {
			dir = "/"
		}
		base = pattern[idx+1:]
	}
	entries, err := s.VFS.Readdir(resolveAgainst(s.Cwd, dir))
	if err != nil {
		return nil, false
	}
	var out []string
	for _, e := range entries {
		if expand.MatchGlob(base, e) {
			if dir != s.Cwd {
				out = append(out, strings.TrimSuffix(pattern[:strings.LastIndex(pattern, "/")+1], "")+e)
			} else {
				out = append(out, e)
			}
		}
	}
	sort.Strings(out)
	return out, len(out) > 0
}

func resolveAgainst(cwd, path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return strings.TrimSuffix(cwd, "/") + "/" + path
}

// execSimpleCommand expands assignments+words then dispatches: a bare
// assignment list sets variables in the current scope; otherwise
// assignments are scoped to just this command's environment (as in bash's
// `FOO=bar cmd`), and the words resolve to a function, shell builtin,
// utility-bank command, or exit 127.
func (s *State) execSimpleCommand(n *ast.SimpleCommand, streams *streamSet) error {
	ctx := s.expandCtx()

	if len(n.Words) == 0 {
		for _, a := range n.Assignments {
			if err := s.applyAssignment(a, ctx); err != nil {
				return err
			}
		}
		s.LastExit = 0
		return nil
	}

	// Command-scoped assignments: apply, run, then restore.
	var saved []*Variable
	var names []string
	for _, a := range n.Assignments {
		names = append(names, a.Name)
		if v, ok := s.Vars[a.Name]; ok {
			cp := *v
			saved = append(saved, &cp)
		} else {
			saved = append(saved, nil)
		}
		if err := s.applyAssignment(a, ctx); err != nil {
			return err
		}
	}
	defer func() {
		for i, name := range names {
			if saved[i] == nil {
				delete(s.Vars, name)
			} else {
				s.Vars[name] = saved[i]
			}
		}
	}()

	words, err := expand.Words(n.Words, ctx)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		s.LastExit = 0
		return nil
	}
	return s.runCommand(words, streams)
}

func (s *State) applyAssignment(a ast.Assignment, ctx *expand.Context) error {
	if a.Array != nil {
		values, err := expand.Words(a.Array, ctx)
		if err != nil {
			return err
		}
		s.SetArray(a.Name, values)
		return nil
	}
	if a.Value == nil {
		s.Set(a.Name, "")
		return nil
	}
	words, err := expand.Words([]*ast.WordNode{a.Value}, ctx)
	if err != nil {
		return err
	}
	value := strings.Join(words, " ")
	if a.Index != nil {
		idx, err := arith.Eval(a.Index, arithVarsOf(s))
		if err != nil {
			return err
		}
		arr, _ := s.GetArray(a.Name)
		for int64(len(arr)) <= idx {
			arr = append(arr, "")
		}
		arr[idx] = value
		s.SetArray(a.Name, arr)
		return nil
	}
	s.Set(a.Name, value)
	return nil
}

type streamSet struct {
	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

func (s *State) swapStreams(streams streamSet) streamSet {
	saved := streamSet{Stdin: s.Stdin, Stdout: s.Stdout, Stderr: s.Stderr}
	if streams.Stdin != nil {
		s.Stdin = streams.Stdin
	}
	if streams.Stdout != nil {
		s.Stdout = streams.Stdout
	}
	if streams.Stderr != nil {
		s.Stderr = streams.Stderr
	}
	return saved
}

func (s *State) restoreStreams(saved streamSet) {
	s.Stdin, s.Stdout, s.Stderr = saved.Stdin, saved.Stdout, saved.Stderr
}

// runCommand resolves argv[0] to a function, shell builtin, or
// utility-bank command and runs it with the current I/O streams.
func (s *State) runCommand(argv []string, override *streamSet) error {
	stdin, stdout, stderr := s.Stdin, s.Stdout, s.Stderr
	if override != nil {
		if override.Stdin != nil {
			stdin = override.Stdin
		}
		if override.Stdout != nil {
			stdout = override.Stdout
		}
		if override.Stderr != nil {
			stderr = override.Stderr
		}
	}

	name := argv[0]

	if fn, ok := s.Functions[name]; ok {
		return s.callFunction(fn, argv[1:], stdin, stdout, stderr)
	}

	if code, handled, err := s.runShellBuiltin(name, argv[1:], stdin, stdout, stderr); handled {
		s.LastExit = code
		return err
	}

	if utilities.Has(name) {
		code, err := utilities.Run(name, utilities.ExecContext{
			Args:     argv[1:],
			Stdin:    stdin,
			Stdout:   stdout,
			Stderr:   stderr,
			VFS:      s.VFS,
			Cwd:      s.Cwd,
			Env:      s.Environ(),
			NetGate:  s.NetGate,
			PGGate:   s.PGGate,
			RunShell: s.runSubprocessShell,
		})
		s.LastExit = code
		return err
	}

	s.LastExit = 127
	suggestion := suggestCommand(name)
	if suggestion != "" {
		fmt.Fprintf(stderr, "bash: %s: command not found (did you mean %s?)\n", name, suggestion)
	} else {
		fmt.Fprintf(stderr, "bash: %s: command not found\n", name)
	}
	return nil
}

func suggestCommand(name string) string {
	best, bestScore := "", -1
	for _, candidate := range append(utilities.Names(), shellBuiltinNames()...) {
		if d := fuzzy.RankMatchFold(name, candidate); d >= 0 && (bestScore == -1 || d < bestScore) {
			best, bestScore = candidate, d
		}
	}
	return best
}

func (s *State) callFunction(fn *ast.FuncDecl, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if s.FuncDepth >= maxFuncDepth {
		return fmt.Errorf("%s: function call depth exceeded", fn.Name)
	}
	savedPositional := s.Positional
	savedStreams := s.swapStreams(streamSet{Stdin: stdin, Stdout: stdout, Stderr: stderr})
	s.Positional = args
	s.FuncDepth++

	err := s.execBody(fn.Body)

	s.FuncDepth--
	s.Positional = savedPositional
	s.restoreStreams(savedStreams)

	if sig, ok := asSignal(err); ok {
		if sig.kind == sigReturn {
			s.LastExit = sig.exitCode
			return nil
		}
		return err
	}
	return err
}

func (s *State) applyRedirects(redirects []ast.Redirect) (streamSet, func(), error) {
	return s.applyRedirectsTo(streamSet{}, redirects)
}
