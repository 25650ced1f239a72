package utilities

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
)

func init() {
	register("jq", cmdJq)
}

func cmdJq(ctx ExecContext) int {
	raw := false
	var query string
	haveQuery := false
	var files []string
	for _, a := range ctx.Args {
		switch {
		case a == "-r":
			raw = true
		case !haveQuery:
			query = a
			haveQuery = true
		default:
			files = append(files, a)
		}
	}
	if !haveQuery {
		fmt.Fprintln(ctx.Stderr, "jq: missing query")
		return 2
	}
	q, err := gojq.Parse(query)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "jq: %v\n", err)
		return 3
	}

	var data []byte
	if len(files) > 0 {
		data, err = ctx.VFS.ReadFile(resolve(ctx, files[0]))
	} else {
		data, err = io.ReadAll(ctx.Stdin)
	}
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "jq: %v\n", err)
		return 2
	}

	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		fmt.Fprintf(ctx.Stderr, "jq: invalid JSON input: %v\n", err)
		return 2
	}

	iter := q.Run(input)
	status := 0
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			fmt.Fprintf(ctx.Stderr, "jq: error: %v\n", err)
			status = 5
			continue
		}
		if raw {
			if s, ok := v.(string); ok {
				fmt.Fprintln(ctx.Stdout, s)
				continue
			}
		}
		enc, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "jq: %v\n", err)
			status = 5
			continue
		}
		fmt.Fprintln(ctx.Stdout, string(enc))
	}
	return status
}
