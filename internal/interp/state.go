// Package interp is the statement interpreter of spec.md §4.4: it walks
// the AST produced by internal/ast, drives internal/expand for every word,
// and dispatches commands through internal/builtins and internal/utilities.
package interp

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/invariant"
	"github.com/vercel-labs/just-bash/internal/netgate"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

// Variable is one shell variable's storage: either a scalar or an array,
// never both.
type Variable struct {
	Value    string
	Array    []string
	IsArray  bool
	Exported bool
	ReadOnly bool
}

// Options mirrors the subset of `set -o` flags spec.md §4.4 names.
type Options struct {
	Errexit  bool
	Pipefail bool
	Nounset  bool
	Xtrace   bool
}

// State is one shell's mutable interpreter state: variables, functions,
// the working directory, and the engine's shared subsystems. A Subshell
// statement runs against a *copy* (state.fork()); a Block runs against
// the same State.
type State struct {
	VFS        *vfs.VFS
	Cwd        string
	Vars       map[string]*Variable
	Functions  map[string]*ast.FuncDecl
	Positional []string
	LastExit   int
	Options    Options
	NetGate    *netgate.Gate
	PGGate     *netgate.PostgresGate

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	rng       *rand.Rand
	startTime time.Time
	lineNo    int
	shellPID  int

	// FuncDepth guards against unbounded recursion blowing the Go stack.
	FuncDepth int

	procSubstSeq int
}

const maxFuncDepth = 1000

// New creates interpreter state rooted at an already-populated VFS.
func New(fs *vfs.VFS, stdin io.Reader, stdout, stderr io.Writer) *State {
	invariant.NotNil(fs, "fs")
	return &State{
		VFS:       fs,
		Cwd:       "/",
		Vars:      map[string]*Variable{},
		Functions: map[string]*ast.FuncDecl{},
		Stdin:     stdin,
		Stdout:    stdout,
		Stderr:    stderr,
		rng:       rand.New(rand.NewSource(1)),
		startTime: time.Now(),
		shellPID:  1,
	}
}

// fork produces the state for a subshell: same VFS snapshot reference
// (cheap, copy-on-write per internal/vfs), a copied variable table so
// writes don't leak back out, but the SAME underlying *vfs.VFS object
// since bash subshells still see the parent's filesystem — only a
// separate process image, not a separate mount.
func (s *State) fork() *State {
	vars := make(map[string]*Variable, len(s.Vars))
	for k, v := range s.Vars {
		cp := *v
		vars[k] = &cp
	}
	funcs := make(map[string]*ast.FuncDecl, len(s.Functions))
	for k, v := range s.Functions {
		funcs[k] = v
	}
	child := &State{
		VFS:        s.VFS,
		Cwd:        s.Cwd,
		Vars:       vars,
		Functions:  funcs,
		Positional: append([]string(nil), s.Positional...),
		Options:    s.Options,
		NetGate:    s.NetGate,
		PGGate:     s.PGGate,
		Stdin:      s.Stdin,
		Stdout:     s.Stdout,
		Stderr:     s.Stderr,
		rng:        s.rng,
		startTime:  s.startTime,
		shellPID:   s.shellPID,
		FuncDepth:  s.FuncDepth,
	}
	return child
}

// Get implements expand.Vars.
func (s *State) Get(name string) (string, bool) {
	v, ok := s.Vars[name]
	if !ok || v.IsArray {
		return "", false
	}
	return v.Value, true
}

// GetArray implements expand.Vars.
func (s *State) GetArray(name string) ([]string, bool) {
	v, ok := s.Vars[name]
	if !ok || !v.IsArray {
		return nil, false
	}
	return v.Array, true
}

// Set implements expand.Vars.
func (s *State) Set(name, value string) {
	v, ok := s.Vars[name]
	if ok && v.ReadOnly {
		return
	}
	if !ok {
		v = &Variable{}
		s.Vars[name] = v
	}
	v.Value = value
	v.IsArray = false
}

// SetArray assigns an array variable, e.g. from `name=(a b c)`.
func (s *State) SetArray(name string, values []string) {
	v, ok := s.Vars[name]
	if ok && v.ReadOnly {
		return
	}
	if !ok {
		v = &Variable{}
		s.Vars[name] = v
	}
	v.Array = values
	v.IsArray = true
}

// IsArray implements expand.Vars.
func (s *State) IsArray(name string) bool {
	v, ok := s.Vars[name]
	return ok && v.IsArray
}

// Unset removes a variable entirely.
func (s *State) Unset(name string) { delete(s.Vars, name) }

// Export marks a variable for inheritance into utility-bank subprocess
// shims (spec.md has no real fork/exec, so this only affects what
// `export -p`/`env` report).
func (s *State) Export(name string) {
	v, ok := s.Vars[name]
	if !ok {
		v = &Variable{}
		s.Vars[name] = v
	}
	v.Exported = true
}

// Environ returns the exported variables as NAME=value pairs, the view a
// utility-bank command spawned "as a process" would see.
func (s *State) Environ() []string {
	var out []string
	for k, v := range s.Vars {
		if v.Exported && !v.IsArray {
			out = append(out, fmt.Sprintf("%s=%s", k, v.Value))
		}
	}
	return out
}

// specials returns the $?, $$, $RANDOM, $SECONDS, $LINENO table for
// the expander's Context.Special. Background jobs are not tracked, so the
// table has no $! entry.
func (s *State) specials() map[string]string {
	return map[string]string{
		"?":       fmt.Sprintf("%d", s.LastExit),
		"$":       fmt.Sprintf("%d", s.shellPID),
		"RANDOM":  fmt.Sprintf("%d", s.rng.Intn(32768)),
		"SECONDS": fmt.Sprintf("%d", int(time.Since(s.startTime).Seconds())),
		"LINENO":  fmt.Sprintf("%d", s.lineNo),
	}
}
