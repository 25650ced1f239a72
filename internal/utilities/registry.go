// Package utilities is the fallback "utility bank" spec.md §4.5
// describes: POSIX-ish commands implemented in-process against the
// sandboxed VFS, reached only after the function table and shell-builtin
// table both miss.
package utilities

import (
	"io"
	"sort"

	"github.com/vercel-labs/just-bash/internal/netgate"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

// ExecContext is everything a utility-bank command can touch: no real
// process environment, no real file descriptors — only what the engine
// hands it.
type ExecContext struct {
	Args    []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	VFS     *vfs.VFS
	Cwd     string
	Env     []string
	NetGate *netgate.Gate
	PGGate  *netgate.PostgresGate

	// RunShell lets js-exec's child_process bindings re-enter the host
	// shell (spec.md §4.6); nil outside that context.
	RunShell func(script string) (stdout string, exitCode int)
}

// Func is one utility's entry point; it returns the process's exit code.
type Func func(ctx ExecContext) int

var registry = map[string]Func{}

func register(name string, fn Func) { registry[name] = fn }

// Has reports whether name is implemented in the utility bank.
func Has(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names lists every registered utility, for did-you-mean suggestions.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run dispatches to name's implementation. Callers must check Has first;
// Run panics on an unknown name since that indicates a dispatcher bug, not
// a user-facing "command not found" (that's handled by the 127 path
// before Run is ever called).
func Run(name string, ctx ExecContext) (int, error) {
	fn, ok := registry[name]
	if !ok {
		panic("utilities: Run called for unregistered command " + name)
	}
	return fn(ctx), nil
}
