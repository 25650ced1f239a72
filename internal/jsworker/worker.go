// Package jsworker hosts the isolated JavaScript interpreter the js-exec
// utility evaluates guest scripts in (spec.md §4.6). Unlike a real OS
// process pair, goja already runs the guest on a single goroutine and every
// host binding below is an ordinary blocking Go call — so the guest's
// "synchronous" fs/process API falls out for free, without needing the
// shared-memory poll/signal protocol a truly concurrent guest would require.
package jsworker

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

// exitSignal is the value passed to vm.Interrupt by process.exit(code); Run
// unwraps it from the resulting InterruptedError to get the guest's chosen
// exit code instead of treating it as a crash.
type exitSignal struct{ code int }

// RunShellFunc lets child_process.exec/execSync re-enter the host shell,
// per spec.md §4.6 ("routed back through the host as a new shell
// invocation"). It is injected by the caller rather than imported, since
// internal/interp already imports internal/jsworker for the js-exec builtin.
type RunShellFunc func(script string) (stdout string, exitCode int)

// FetchFunc lets the guest's fetch() implementation funnel through the
// network gate (spec.md §4.6/§4.7), again injected to avoid an import cycle.
type FetchFunc func(method, url string, body string) (status int, respBody string, err error)

// Options configures one guest script evaluation.
type Options struct {
	VFS       *vfs.VFS
	Cwd       string
	Args      []string
	Env       map[string]string
	Timeout   time.Duration // 0 means DefaultTimeout
	RunShell  RunShellFunc
	Fetch     FetchFunc
}

const DefaultTimeout = 10 * time.Second

// Result is what the host reports back as the js-exec builtin's outcome.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run evaluates source as a script body: console.log/error write to the
// returned buffers, and a thrown/uncaught error or process.exit(n) sets
// ExitCode.
func Run(source string, opts Options) Result {
	vm := goja.New()
	vm.SetMaxCallStackSize(2048)

	res := &Result{}
	console := vm.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		res.Stdout += formatArgs(call.Arguments) + "\n"
		return goja.Undefined()
	})
	console.Set("error", func(call goja.FunctionCall) goja.Value {
		res.Stderr += formatArgs(call.Arguments) + "\n"
		return goja.Undefined()
	})
	vm.Set("console", console)

	bridge := newBridge(opts.VFS, opts.Cwd)
	vm.Set("fs", bridge.fsModule(vm))
	vm.Set("path", bridge.pathModule(vm))
	vm.Set("process", bridge.processModule(vm, opts))
	vm.Set("child_process", bridge.childProcessModule(vm, opts.RunShell))
	vm.Set("fetch", bridge.fetchFunc(vm, opts.Fetch))

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt(exitSignal{code: 124})
	})
	defer timer.Stop()

	_, err := vm.RunString(source)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if sig, ok := interrupted.Value().(exitSignal); ok {
				res.ExitCode = sig.code
				return *res
			}
			res.Stderr += interrupted.Error() + "\n"
			res.ExitCode = 1
			return *res
		}
		var exception *goja.Exception
		if errors.As(err, &exception) {
			res.Stderr += exception.Error() + "\n"
			res.ExitCode = 1
			return *res
		}
		res.Stderr += err.Error() + "\n"
		res.ExitCode = 1
	}
	return *res
}

func formatArgs(args []goja.Value) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%v", a)
	}
	return out
}
