package utilities

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vercel-labs/just-bash/internal/jsworker"
)

func init() {
	register("js-exec", cmdJsExec)
}

// cmdJsExec evaluates a guest script (inline via -e, a VFS path, or stdin)
// in the isolated interpreter described in spec.md §4.6.
func cmdJsExec(ctx ExecContext) int {
	var source string
	var scriptArgs []string
	if len(ctx.Args) > 0 && ctx.Args[0] == "-e" {
		if len(ctx.Args) < 2 {
			fmt.Fprintln(ctx.Stderr, "js-exec: -e requires a script argument")
			return 2
		}
		source = ctx.Args[1]
		scriptArgs = ctx.Args[2:]
	} else if len(ctx.Args) > 0 {
		data, err := ctx.VFS.ReadFile(resolve(ctx, ctx.Args[0]))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "js-exec: %s: %v\n", ctx.Args[0], err)
			return 1
		}
		source = string(data)
		scriptArgs = ctx.Args[1:]
	} else {
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "js-exec: %v\n", err)
			return 1
		}
		source = string(data)
	}

	env := map[string]string{}
	for _, kv := range ctx.Env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	var runShell jsworker.RunShellFunc
	if ctx.RunShell != nil {
		runShell = ctx.RunShell
	}
	var fetch jsworker.FetchFunc
	if ctx.NetGate != nil {
		gate := ctx.NetGate
		fetch = func(method, url, body string) (int, string, error) {
			resp, err := gate.Fetch(context.Background(), method, url, strings.NewReader(body), nil)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, string(resp.Body), nil
		}
	}

	result := jsworker.Run(source, jsworker.Options{
		VFS: ctx.VFS, Cwd: ctx.Cwd, Args: scriptArgs, Env: env,
		RunShell: runShell, Fetch: fetch,
	})
	io.WriteString(ctx.Stdout, result.Stdout)
	io.WriteString(ctx.Stderr, result.Stderr)
	return result.ExitCode
}
