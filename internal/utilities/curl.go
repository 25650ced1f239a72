package utilities

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vercel-labs/just-bash/internal/netgate"
)

func init() {
	register("curl", cmdCurl)
}

// cmdCurl routes every request through the netgate allow-list (spec.md §4.7);
// with no gate configured, network access is denied by default rather than
// silently falling back to the real internet.
func cmdCurl(ctx ExecContext) int {
	method := "GET"
	silent := false
	var headers http.Header = http.Header{}
	var url string
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		switch {
		case a == "-X" && i+1 < len(ctx.Args):
			method = ctx.Args[i+1]
			i++
		case a == "-s" || a == "--silent":
			silent = true
		case a == "-H" && i+1 < len(ctx.Args):
			if k, v, ok := strings.Cut(ctx.Args[i+1], ":"); ok {
				headers.Add(strings.TrimSpace(k), strings.TrimSpace(v))
			}
			i++
		case strings.HasPrefix(a, "-"):
			// unsupported flag, ignore
		default:
			url = a
		}
	}
	if url == "" {
		fmt.Fprintln(ctx.Stderr, "curl: no URL specified")
		return 2
	}
	if ctx.NetGate == nil {
		fmt.Fprintln(ctx.Stderr, "curl: (7) network access is disabled in this environment")
		return 7
	}
	resp, err := ctx.NetGate.Fetch(context.Background(), method, url, nil, headers)
	if err != nil {
		if !silent {
			fmt.Fprintf(ctx.Stderr, "curl: (%d) %v\n", curlExitCode(err), err)
		}
		return curlExitCode(err)
	}
	ctx.Stdout.Write(resp.Body)
	return 0
}

func curlExitCode(err error) int {
	switch {
	case errors.Is(err, netgate.ErrNetworkAccessDenied), errors.Is(err, netgate.ErrMethodNotAllowed):
		return 6
	case errors.Is(err, netgate.ErrTooManyRedirects), errors.Is(err, netgate.ErrRedirectNotAllowed):
		return 47
	case errors.Is(err, netgate.ErrResponseTooLarge):
		return 63
	case errors.Is(err, netgate.ErrTimeout):
		return 28
	default:
		return 1
	}
}
